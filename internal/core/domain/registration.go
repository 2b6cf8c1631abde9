package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "Pending"
	RegistrationSuccessful RegistrationStatus = "Successful"
	RegistrationRejected   RegistrationStatus = "Rejected"
	RegistrationCancelled  RegistrationStatus = "Cancelled"
	RegistrationCompleted  RegistrationStatus = "Completed"
)

// Active reports whether the status still blocks a resubmission for the
// same (participant, event) pair.
func (s RegistrationStatus) Active() bool {
	return s == RegistrationPending || s == RegistrationSuccessful
}

type Registration struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	ParticipantID uuid.UUID
	TicketID      string
	Status        RegistrationStatus
	FormData      map[string]string
	Items         []PurchasedItem
	TeamName      string
	PaymentProof  string
	CheckInCode   string
	Attended      bool
	AttendedAt    *time.Time
	CreatedAt     time.Time
}

// PurchasedItem records one merchandise line at its price at purchase
// time, so later price edits do not rewrite history.
type PurchasedItem struct {
	ItemName string  `json:"item_name"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Participant is the slice of the external identity record the engine
// needs for reports and notifications.
type Participant struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
}

func (p Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// TicketNotification is handed to the notification collaborator exactly
// once per finalized registration.
type TicketNotification struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	EventName     string    `json:"event_name"`
	TicketID      string    `json:"ticket_id"`
	CheckInCode   string    `json:"check_in_code"`
	EventType     EventType `json:"event_type"`
}

type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "Approved"
	DecisionReject  ApprovalDecision = "Rejected"
)
