package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventNormal      EventType = "Normal"
	EventMerchandise EventType = "Merchandise"
)

type EventStatus string

const (
	EventDraft     EventStatus = "Draft"
	EventPublished EventStatus = "Published"
	EventOngoing   EventStatus = "Ongoing"
	EventCompleted EventStatus = "Completed"
	EventClosed    EventStatus = "Closed"
)

type Event struct {
	ID                   uuid.UUID
	Name                 string
	Description          string
	Type                 EventType
	Category             string
	Eligibility          string
	RegistrationDeadline time.Time
	StartDate            time.Time
	EndDate              time.Time
	RegistrationLimit    *int
	RegisteredCount      int
	RegistrationFee      float64
	OrganizerID          uuid.UUID
	Status               EventStatus
	Variants             []Variant
	CreatedAt            time.Time
}

// Variant is one purchasable merchandise option, keyed by (item, size)
// within its event.
type Variant struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	ItemName      string
	Size          string
	Price         float64
	StockQuantity int
	PurchaseLimit int
}

func (e *Event) IsFree() bool {
	return e.RegistrationFee == 0
}

// DeadlinePassed reports whether registration closed before now.
func (e *Event) DeadlinePassed(now time.Time) bool {
	return now.After(e.RegistrationDeadline)
}

// IsFull applies only to Normal events with a configured limit.
// Merchandise availability is a per-variant question, see StockExhausted.
func (e *Event) IsFull() bool {
	if e.Type != EventNormal || e.RegistrationLimit == nil {
		return false
	}
	return e.RegisteredCount >= *e.RegistrationLimit
}

// StockExhausted reports whether every variant of a Merchandise event
// has zero remaining stock.
func (e *Event) StockExhausted() bool {
	if e.Type != EventMerchandise {
		return false
	}
	for _, v := range e.Variants {
		if v.StockQuantity > 0 {
			return false
		}
	}
	return true
}

// FindVariant returns the variant matching (itemName, size), or nil.
func (e *Event) FindVariant(itemName, size string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ItemName == itemName && e.Variants[i].Size == size {
			return &e.Variants[i]
		}
	}
	return nil
}

// Availability is the registration-availability summary shown on an
// event page. Normal fullness and Merchandise stock exhaustion are kept
// as independent predicates.
type Availability struct {
	IsOpen         bool   `json:"is_open"`
	DeadlinePassed bool   `json:"deadline_passed"`
	IsFull         bool   `json:"is_full"`
	OutOfStock     bool   `json:"out_of_stock"`
	Message        string `json:"message"`
}

func (e *Event) AvailabilityAt(now time.Time) Availability {
	a := Availability{
		DeadlinePassed: e.DeadlinePassed(now),
		IsFull:         e.IsFull(),
		OutOfStock:     e.StockExhausted(),
	}

	switch {
	case a.DeadlinePassed:
		a.Message = "Registration deadline passed"
	case a.IsFull:
		a.Message = "Event is full"
	case a.OutOfStock:
		a.Message = "All items out of stock"
	default:
		a.IsOpen = true
		a.Message = "Available"
	}
	return a
}
