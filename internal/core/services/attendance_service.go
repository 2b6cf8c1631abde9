package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
	"github.com/clubcouncil/registration-engine/internal/core/ports"
)

// AttendanceService validates tickets at the door and records a
// one-time attendance event per registration.
type AttendanceService struct {
	events        ports.EventRepository
	registrations ports.RegistrationRepository
}

func NewAttendanceService(events ports.EventRepository, registrations ports.RegistrationRepository) *AttendanceService {
	return &AttendanceService{events: events, registrations: registrations}
}

// CheckIn accepts a scanned check-in code or a bare ticket id. The
// attendance write is a single conditional update keyed on the ticket,
// so two concurrent scans of the same ticket cannot both succeed.
func (s *AttendanceService) CheckIn(ctx context.Context, ticketOrCode string, organizerID uuid.UUID) (*domain.Registration, error) {
	ticketID := ParseCheckInCode(ticketOrCode)
	if ticketID == "" {
		return nil, domain.ErrInvalidTicket
	}

	reg, err := s.registrations.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			return nil, domain.ErrInvalidTicket
		}
		return nil, err
	}
	if reg.Status != domain.RegistrationSuccessful {
		return nil, domain.ErrInvalidTicket
	}

	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrUnauthorized
	}

	if reg.Attended {
		return nil, s.alreadyCheckedIn(reg)
	}

	now := time.Now().UTC()
	ok, err := s.registrations.MarkAttended(ctx, ticketID, now)
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	if !ok {
		// A concurrent scan won; report the instant it recorded.
		fresh, err := s.registrations.GetByTicketID(ctx, ticketID)
		if err != nil {
			return nil, fmt.Errorf("load checked-in registration: %w", err)
		}
		return nil, s.alreadyCheckedIn(fresh)
	}

	reg.Attended = true
	reg.AttendedAt = &now
	return reg, nil
}

func (s *AttendanceService) alreadyCheckedIn(reg *domain.Registration) error {
	checkedAt := time.Time{}
	if reg.AttendedAt != nil {
		checkedAt = *reg.AttendedAt
	}
	return &domain.AlreadyCheckedInError{TicketID: reg.TicketID, CheckedAt: checkedAt}
}
