package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrDeadlinePassed       = errors.New("registration deadline has passed")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrEventFull            = errors.New("event is full")
	ErrProofRequired        = errors.New("payment proof is required for paid events")
	ErrUnauthorized         = errors.New("not authorized for this event")
	ErrInvalidState         = errors.New("registration is not in a state that allows this action")
	ErrInvalidTicket        = errors.New("invalid ticket")
	ErrNoItemsSelected      = errors.New("merchandise registration must include at least one item")
	ErrTicketCollision      = errors.New("ticket id already exists")
)

// OutOfStockError names the first variant that could not be reserved.
// The whole request is rejected; no partial decrement happens.
type OutOfStockError struct {
	ItemName string
	Size     string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("item %s (%s) is out of stock", e.ItemName, e.Size)
}

// AlreadyCheckedInError reports a duplicate check-in together with the
// instant the first one happened.
type AlreadyCheckedInError struct {
	TicketID  string
	CheckedAt time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("ticket %s already checked in at %s", e.TicketID, e.CheckedAt.Format(time.RFC3339))
}

// PurchaseLimitError reports a requested quantity above a variant's
// per-participant limit.
type PurchaseLimitError struct {
	ItemName string
	Size     string
	Limit    int
}

func (e *PurchaseLimitError) Error() string {
	return fmt.Sprintf("item %s (%s) is limited to %d per participant", e.ItemName, e.Size, e.Limit)
}
