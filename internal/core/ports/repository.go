package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

type EventRepository interface {
	// GetByID loads an event with its variants, or domain.ErrEventNotFound.
	GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Registration, error)
	// FindActive returns the participant's Pending or Successful
	// registration for the event, or (nil, nil) when there is none.
	FindActive(ctx context.Context, eventID, participantID uuid.UUID) (*domain.Registration, error)
	TicketExists(ctx context.Context, ticketID string) (bool, error)
	// Transition moves a registration from one status to another as a
	// single conditional write. It reports false when the registration
	// was not in the expected status.
	Transition(ctx context.Context, id uuid.UUID, from, to domain.RegistrationStatus) (bool, error)
	// Finalize moves Pending to Successful and records the check-in
	// code in the same conditional write.
	Finalize(ctx context.Context, id uuid.UUID, checkInCode string) (bool, error)
	// MarkAttended flips the attendance flag exactly once. It reports
	// false when the flag was already set.
	MarkAttended(ctx context.Context, ticketID string, at time.Time) (bool, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Registration, error)
	ListPendingByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Registration, error)
}

// InventoryRepository is the inventory ledger. TryReserve must be
// atomic with respect to all concurrent callers on the same event: the
// availability check and the decrement are one conditional write, and
// multi-variant requests apply all-or-nothing. Release is idempotent
// per reservation: a repeated release for the same registration applies
// at most once until that registration reserves again, so retry loops
// cannot inflate inventory.
type InventoryRepository interface {
	TryReserve(ctx context.Context, eventID, registrationID uuid.UUID, req domain.ReservationRequest) error
	Release(ctx context.Context, eventID, registrationID uuid.UUID, req domain.ReservationRequest) error
}

// Notifier delivers the ticket notification for a finalized
// registration. Failures are logged by callers and never roll back a
// registration.
type Notifier interface {
	NotifyTicketIssued(ctx context.Context, n domain.TicketNotification) error
}

// ParticipantDirectory resolves participant identities owned by the
// external identity service.
type ParticipantDirectory interface {
	GetParticipant(ctx context.Context, id uuid.UUID) (*domain.Participant, error)
}
