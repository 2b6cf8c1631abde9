package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
	"github.com/clubcouncil/registration-engine/internal/core/ports"
)

// ApprovalService resolves Pending paid registrations. Reservation was
// deliberately not taken at submission, so approval is the point where
// the inventory ledger is consulted, and it can still come back
// Full/OutOfStock. That outcome leaves the registration Pending and is
// surfaced to the organizer, never silently approved.
type ApprovalService struct {
	events        ports.EventRepository
	registrations ports.RegistrationRepository
	inventory     ports.InventoryRepository
	notifier      ports.Notifier
	cache         *redis.Client
}

func NewApprovalService(
	events ports.EventRepository,
	registrations ports.RegistrationRepository,
	inventory ports.InventoryRepository,
	notifier ports.Notifier,
	cache *redis.Client,
) *ApprovalService {
	return &ApprovalService{
		events:        events,
		registrations: registrations,
		inventory:     inventory,
		notifier:      notifier,
		cache:         cache,
	}
}

func (s *ApprovalService) Resolve(ctx context.Context, registrationID, organizerID uuid.UUID, decision domain.ApprovalDecision) (*domain.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != organizerID {
		return nil, domain.ErrUnauthorized
	}
	if reg.Status != domain.RegistrationPending {
		return nil, domain.ErrInvalidState
	}

	if decision == domain.DecisionReject {
		ok, err := s.registrations.Transition(ctx, reg.ID, domain.RegistrationPending, domain.RegistrationRejected)
		if err != nil {
			return nil, fmt.Errorf("reject registration: %w", err)
		}
		if !ok {
			return nil, domain.ErrInvalidState
		}
		// Nothing to release: no reservation was taken at submission.
		reg.Status = domain.RegistrationRejected
		return reg, nil
	}

	reservation := domain.ReservationFor(reg, event.Type)
	if err := s.inventory.TryReserve(ctx, event.ID, reg.ID, reservation); err != nil {
		// Stock ran out while the registration sat Pending. It stays
		// Pending; the organizer sees the explicit error.
		return nil, err
	}

	checkInCode := DeriveCheckInCode(reg.TicketID)

	ok, err := s.registrations.Finalize(ctx, reg.ID, checkInCode)
	if err != nil {
		s.release(event.ID, reg.ID, reservation)
		return nil, fmt.Errorf("finalize registration: %w", err)
	}
	if !ok {
		// Lost a race with a concurrent resolve on the same registration.
		s.release(event.ID, reg.ID, reservation)
		return nil, domain.ErrInvalidState
	}

	if err := s.cache.Del(ctx, availabilityKey(event.ID)).Err(); err != nil {
		log.Printf("availability cache invalidation failed for %s: %v", event.ID, err)
	}

	reg.Status = domain.RegistrationSuccessful
	reg.CheckInCode = checkInCode
	s.notify(ctx, event, reg)
	return reg, nil
}

// PendingApprovals lists the Pending registrations across the
// organizer's events.
func (s *ApprovalService) PendingApprovals(ctx context.Context, organizerID uuid.UUID) ([]domain.Registration, error) {
	return s.registrations.ListPendingByOrganizer(ctx, organizerID)
}

func (s *ApprovalService) notify(ctx context.Context, event *domain.Event, reg *domain.Registration) {
	err := s.notifier.NotifyTicketIssued(ctx, domain.TicketNotification{
		ParticipantID: reg.ParticipantID,
		EventName:     event.Name,
		TicketID:      reg.TicketID,
		CheckInCode:   reg.CheckInCode,
		EventType:     event.Type,
	})
	if err != nil {
		log.Printf("notification failed for ticket %s, approval stands: %v", reg.TicketID, err)
	}
}

func (s *ApprovalService) release(eventID, registrationID uuid.UUID, req domain.ReservationRequest) {
	ctx := context.Background()
	var err error
	for attempt := 1; attempt <= releaseAttempts; attempt++ {
		if err = s.inventory.Release(ctx, eventID, registrationID, req); err == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * releaseBackoff)
	}
	log.Printf("RECONCILE: failed to release reservation for event %s: %v", eventID, err)
}
