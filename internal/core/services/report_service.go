package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
	"github.com/clubcouncil/registration-engine/internal/core/ports"
)

// reportColumns is the fixed export header, one row per registration.
var reportColumns = []string{
	"Name", "Email", "Registration Date", "Ticket ID",
	"Status", "Custom Responses/Items", "Attended", "Check-in Time",
}

type ReportRow struct {
	Name             string                    `json:"name"`
	Email            string                    `json:"email"`
	RegistrationDate time.Time                 `json:"registration_date"`
	TicketID         string                    `json:"ticket_id"`
	Status           domain.RegistrationStatus `json:"status"`
	Summary          string                    `json:"summary"`
	Team             string                    `json:"team"`
	Attended         bool                      `json:"attended"`
	CheckInTime      *time.Time                `json:"check_in_time,omitempty"`
}

type ReportAnalytics struct {
	TotalRegistrations int     `json:"total_registrations"`
	TotalRevenue       float64 `json:"total_revenue"`
	TotalTeams         int     `json:"total_teams"`
}

type ParticipantReport struct {
	EventName string           `json:"event_name"`
	EventType domain.EventType `json:"event_type"`
	Analytics ReportAnalytics  `json:"analytics"`
	Rows      []ReportRow      `json:"participants"`
}

// ReportService builds the organizer's participant table and its CSV
// export.
type ReportService struct {
	events        ports.EventRepository
	registrations ports.RegistrationRepository
	participants  ports.ParticipantDirectory
}

func NewReportService(
	events ports.EventRepository,
	registrations ports.RegistrationRepository,
	participants ports.ParticipantDirectory,
) *ReportService {
	return &ReportService{events: events, registrations: registrations, participants: participants}
}

func (s *ReportService) ParticipantReport(ctx context.Context, eventID, organizerID uuid.UUID) (*ParticipantReport, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrUnauthorized
	}

	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	report := &ParticipantReport{
		EventName: event.Name,
		EventType: event.Type,
		Rows:      make([]ReportRow, 0, len(regs)),
	}

	teams := make(map[string]struct{})
	for i := range regs {
		reg := &regs[i]

		participant, err := s.participants.GetParticipant(ctx, reg.ParticipantID)
		if err != nil {
			return nil, fmt.Errorf("resolve participant %s: %w", reg.ParticipantID, err)
		}

		row := ReportRow{
			Name:             participant.FullName(),
			Email:            participant.Email,
			RegistrationDate: reg.CreatedAt,
			TicketID:         reg.TicketID,
			Status:           reg.Status,
			Summary:          summarize(event.Type, reg),
			Team:             reg.TeamName,
			Attended:         reg.Attended,
			CheckInTime:      reg.AttendedAt,
		}
		if row.Team == "" {
			row.Team = "Individual"
		}
		report.Rows = append(report.Rows, row)

		if reg.TeamName != "" {
			teams[reg.TeamName] = struct{}{}
		}
	}

	report.Analytics = ReportAnalytics{
		TotalRegistrations: len(regs),
		TotalRevenue:       revenue(event, regs),
		TotalTeams:         len(teams),
	}
	return report, nil
}

// WriteCSV streams the report in the export format: attended rendered
// YES/NO, missing check-in time rendered N/A.
func (s *ReportService) WriteCSV(w io.Writer, report *ParticipantReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range report.Rows {
		attended := "NO"
		if row.Attended {
			attended = "YES"
		}
		checkIn := "N/A"
		if row.CheckInTime != nil {
			checkIn = row.CheckInTime.Format("2006-01-02 15:04:05")
		}

		record := []string{
			row.Name,
			row.Email,
			row.RegistrationDate.Format("2006-01-02"),
			row.TicketID,
			string(row.Status),
			row.Summary,
			attended,
			checkIn,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var filenameSpaces = regexp.MustCompile(`\s+`)

// ExportFilename derives the attachment name from the event name.
func ExportFilename(eventName string) string {
	return filenameSpaces.ReplaceAllString(eventName, "_") + "_Participants.csv"
}

// summarize renders form answers or purchased items as one cell.
// Commas inside form answers become semicolons so spreadsheet imports
// stay aligned.
func summarize(eventType domain.EventType, reg *domain.Registration) string {
	if eventType == domain.EventMerchandise {
		parts := make([]string, 0, len(reg.Items))
		for _, item := range reg.Items {
			parts = append(parts, fmt.Sprintf("%s(%s)", item.ItemName, item.Size))
		}
		return strings.Join(parts, "; ")
	}

	if len(reg.FormData) == 0 {
		return ""
	}
	b, err := json.Marshal(reg.FormData)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(string(b), ",", ";")
}

// revenue follows the original accounting: merchandise sums
// price-at-purchase times quantity, normal events charge the flat fee
// per registration. Only registrations whose payment was accepted
// count.
func revenue(event *domain.Event, regs []domain.Registration) float64 {
	var total float64
	for _, reg := range regs {
		if reg.Status != domain.RegistrationSuccessful && reg.Status != domain.RegistrationCompleted {
			continue
		}
		if event.Type == domain.EventMerchandise {
			for _, item := range reg.Items {
				total += item.Price * float64(item.Quantity)
			}
			continue
		}
		total += event.RegistrationFee
	}
	return total
}
