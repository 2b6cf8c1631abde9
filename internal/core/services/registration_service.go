package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
	"github.com/clubcouncil/registration-engine/internal/core/ports"
)

const (
	availabilityTTL = 30 * time.Second

	// Compensating releases run a short retry loop before falling back
	// to a durable reconciliation log line.
	releaseAttempts = 3
	releaseBackoff  = 100 * time.Millisecond
)

func availabilityKey(eventID uuid.UUID) string {
	return fmt.Sprintf("availability:%s", eventID)
}

type SubmitRequest struct {
	EventID       uuid.UUID
	ParticipantID uuid.UUID
	FormData      map[string]string
	Items         []domain.ItemRequest
	TeamName      string
	PaymentProof  string
}

// RegistrationService is the workflow engine: it decides whether a
// submission is admissible, reserves the resource it consumes, and
// creates the registration in its initial state.
type RegistrationService struct {
	events        ports.EventRepository
	registrations ports.RegistrationRepository
	inventory     ports.InventoryRepository
	issuer        *TicketIssuer
	notifier      ports.Notifier
	cache         *redis.Client
}

func NewRegistrationService(
	events ports.EventRepository,
	registrations ports.RegistrationRepository,
	inventory ports.InventoryRepository,
	notifier ports.Notifier,
	cache *redis.Client,
) *RegistrationService {
	return &RegistrationService{
		events:        events,
		registrations: registrations,
		inventory:     inventory,
		issuer:        NewTicketIssuer(registrations),
		notifier:      notifier,
		cache:         cache,
	}
}

// Submit runs one registration attempt to completion. Free events
// reserve their slot or stock immediately and come back Successful;
// paid events come back Pending with no reservation held, deferring the
// reservation to approval so unverified payments never lock inventory.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRequest) (*domain.Registration, error) {
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	if event.DeadlinePassed(time.Now()) {
		return nil, domain.ErrDeadlinePassed
	}

	existing, err := s.registrations.FindActive(ctx, event.ID, req.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyRegistered
	}

	reg := &domain.Registration{
		ID:            uuid.New(),
		EventID:       event.ID,
		ParticipantID: req.ParticipantID,
		TeamName:      req.TeamName,
		CreatedAt:     time.Now().UTC(),
	}

	switch event.Type {
	case domain.EventMerchandise:
		items, err := resolveItems(event, req.Items)
		if err != nil {
			return nil, err
		}
		reg.Items = items
	default:
		reg.FormData = req.FormData
	}

	reg.TicketID, err = s.issuer.Issue(ctx)
	if err != nil {
		return nil, err
	}

	if event.IsFree() {
		return s.finalizeFree(ctx, event, reg)
	}

	if req.PaymentProof == "" {
		return nil, domain.ErrProofRequired
	}
	reg.PaymentProof = req.PaymentProof
	reg.Status = domain.RegistrationPending

	if err := s.createWithTicketRetry(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// finalizeFree reserves first, persists second. A persistence failure
// after the reservation triggers a compensating release so inventory is
// never lost to an orphaned reservation.
func (s *RegistrationService) finalizeFree(ctx context.Context, event *domain.Event, reg *domain.Registration) (*domain.Registration, error) {
	reservation := domain.ReservationFor(reg, event.Type)

	if err := s.inventory.TryReserve(ctx, event.ID, reg.ID, reservation); err != nil {
		return nil, err
	}

	reg.Status = domain.RegistrationSuccessful
	reg.CheckInCode = DeriveCheckInCode(reg.TicketID)

	if err := s.createWithTicketRetry(ctx, reg); err != nil {
		s.compensateRelease(event.ID, reg.ID, reservation)
		return nil, err
	}

	s.invalidateAvailability(ctx, event.ID)
	s.notify(ctx, event, reg)
	return reg, nil
}

// createWithTicketRetry persists the registration, re-issuing the
// ticket when the insert loses an identifier race at the storage layer.
// Exhausting the attempts is a hard failure, never a silent success.
func (s *RegistrationService) createWithTicketRetry(ctx context.Context, reg *domain.Registration) error {
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		err := s.registrations.Create(ctx, reg)
		if !errors.Is(err, domain.ErrTicketCollision) {
			return err
		}

		ticketID, issueErr := s.issuer.Issue(ctx)
		if issueErr != nil {
			return issueErr
		}
		reg.TicketID = ticketID
		if reg.CheckInCode != "" {
			reg.CheckInCode = DeriveCheckInCode(ticketID)
		}
	}
	return fmt.Errorf("ticket collision persisted after %d attempts: %w", maxIssueAttempts, domain.ErrTicketCollision)
}

// Cancel lets a participant withdraw their own registration. A
// Successful registration releases what it held; a Pending one holds
// nothing. The conditional transition makes the release fire at most
// once even under concurrent cancellations.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID, participantID uuid.UUID) (*domain.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.ParticipantID != participantID {
		return nil, domain.ErrUnauthorized
	}

	switch reg.Status {
	case domain.RegistrationSuccessful:
		event, err := s.events.GetByID(ctx, reg.EventID)
		if err != nil {
			return nil, err
		}
		ok, err := s.registrations.Transition(ctx, reg.ID, domain.RegistrationSuccessful, domain.RegistrationCancelled)
		if err != nil {
			return nil, fmt.Errorf("cancel registration: %w", err)
		}
		if !ok {
			return nil, domain.ErrInvalidState
		}
		reservation := domain.ReservationFor(reg, event.Type)
		if err := s.inventory.Release(ctx, event.ID, reg.ID, reservation); err != nil {
			log.Printf("RECONCILE: release after cancel of %s failed: %v", reg.ID, err)
		}
		s.invalidateAvailability(ctx, event.ID)
	case domain.RegistrationPending:
		ok, err := s.registrations.Transition(ctx, reg.ID, domain.RegistrationPending, domain.RegistrationCancelled)
		if err != nil {
			return nil, fmt.Errorf("cancel registration: %w", err)
		}
		if !ok {
			return nil, domain.ErrInvalidState
		}
	default:
		return nil, domain.ErrInvalidState
	}

	reg.Status = domain.RegistrationCancelled
	return reg, nil
}

// Availability serves the event-page availability summary through a
// short-lived cache. Cache trouble degrades to a direct read.
func (s *RegistrationService) Availability(ctx context.Context, eventID uuid.UUID) (domain.Availability, error) {
	key := availabilityKey(eventID)

	cached, err := s.cache.Get(ctx, key).Result()
	if err == nil {
		var a domain.Availability
		if jsonErr := json.Unmarshal([]byte(cached), &a); jsonErr == nil {
			return a, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("availability cache read failed for %s: %v", eventID, err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.Availability{}, err
	}

	a := event.AvailabilityAt(time.Now())
	if b, err := json.Marshal(a); err == nil {
		if err := s.cache.Set(ctx, key, b, availabilityTTL).Err(); err != nil {
			log.Printf("availability cache write failed for %s: %v", eventID, err)
		}
	}
	return a, nil
}

func (s *RegistrationService) invalidateAvailability(ctx context.Context, eventID uuid.UUID) {
	if err := s.cache.Del(ctx, availabilityKey(eventID)).Err(); err != nil {
		log.Printf("availability cache invalidation failed for %s: %v", eventID, err)
	}
}

func (s *RegistrationService) notify(ctx context.Context, event *domain.Event, reg *domain.Registration) {
	err := s.notifier.NotifyTicketIssued(ctx, domain.TicketNotification{
		ParticipantID: reg.ParticipantID,
		EventName:     event.Name,
		TicketID:      reg.TicketID,
		CheckInCode:   reg.CheckInCode,
		EventType:     event.Type,
	})
	if err != nil {
		log.Printf("notification failed for ticket %s, registration stands: %v", reg.TicketID, err)
	}
}

func (s *RegistrationService) compensateRelease(eventID, registrationID uuid.UUID, req domain.ReservationRequest) {
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

// resolveItems validates the requested variants against the event and
// captures price-at-purchase. Unknown variants report as out of stock,
// matching what the participant sees when stock ran out between page
// load and submit.
func resolveItems(event *domain.Event, requested []domain.ItemRequest) ([]domain.PurchasedItem, error) {
	if len(requested) == 0 {
		return nil, domain.ErrNoItemsSelected
	}

	items := make([]domain.PurchasedItem, 0, len(requested))
	for _, req := range requested {
		variant := event.FindVariant(req.ItemName, req.Size)
		if variant == nil {
			return nil, &domain.OutOfStockError{ItemName: req.ItemName, Size: req.Size}
		}

		qty := req.Quantity
		if qty <= 0 {
			qty = 1
		}
		if variant.PurchaseLimit > 0 && qty > variant.PurchaseLimit {
			return nil, &domain.PurchaseLimitError{
				ItemName: variant.ItemName,
				Size:     variant.Size,
				Limit:    variant.PurchaseLimit,
			}
		}

		items = append(items, domain.PurchasedItem{
			ItemName: variant.ItemName,
			Size:     variant.Size,
			Quantity: qty,
			Price:    variant.Price,
		})
	}
	return items, nil
}
