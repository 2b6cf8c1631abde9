package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

func TestIsFull(t *testing.T) {
	limit := 2

	tests := []struct {
		name  string
		event domain.Event
		want  bool
	}{
		{
			name:  "under limit",
			event: domain.Event{Type: domain.EventNormal, RegistrationLimit: &limit, RegisteredCount: 1},
			want:  false,
		},
		{
			name:  "at limit",
			event: domain.Event{Type: domain.EventNormal, RegistrationLimit: &limit, RegisteredCount: 2},
			want:  true,
		},
		{
			name:  "no limit configured",
			event: domain.Event{Type: domain.EventNormal, RegisteredCount: 5000},
			want:  false,
		},
		{
			name:  "merchandise never full",
			event: domain.Event{Type: domain.EventMerchandise, RegistrationLimit: &limit, RegisteredCount: 10},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.IsFull())
		})
	}
}

func TestStockExhausted(t *testing.T) {
	tests := []struct {
		name  string
		event domain.Event
		want  bool
	}{
		{
			name: "one variant still stocked",
			event: domain.Event{Type: domain.EventMerchandise, Variants: []domain.Variant{
				{ItemName: "Shirt", Size: "M", StockQuantity: 0},
				{ItemName: "Shirt", Size: "L", StockQuantity: 3},
			}},
			want: false,
		},
		{
			name: "all variants empty",
			event: domain.Event{Type: domain.EventMerchandise, Variants: []domain.Variant{
				{ItemName: "Shirt", Size: "M", StockQuantity: 0},
				{ItemName: "Shirt", Size: "L", StockQuantity: 0},
			}},
			want: true,
		},
		{
			name:  "normal event never stock-exhausted",
			event: domain.Event{Type: domain.EventNormal},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.StockExhausted())
		})
	}
}

func TestFindVariant(t *testing.T) {
	event := domain.Event{
		Type: domain.EventMerchandise,
		Variants: []domain.Variant{
			{ItemName: "Shirt", Size: "M", Price: 350},
			{ItemName: "Shirt", Size: "L", Price: 350},
		},
	}

	found := event.FindVariant("Shirt", "L")
	if assert.NotNil(t, found) {
		assert.Equal(t, "L", found.Size)
	}
	assert.Nil(t, event.FindVariant("Shirt", "XL"))
	assert.Nil(t, event.FindVariant("Hoodie", "M"))
}

func TestAvailabilityAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limit := 1

	t.Run("open", func(t *testing.T) {
		event := domain.Event{
			Type:                 domain.EventNormal,
			RegistrationDeadline: now.Add(time.Hour),
			RegistrationLimit:    &limit,
		}
		a := event.AvailabilityAt(now)
		assert.True(t, a.IsOpen)
		assert.Equal(t, "Available", a.Message)
	})

	t.Run("deadline wins over fullness", func(t *testing.T) {
		event := domain.Event{
			Type:                 domain.EventNormal,
			RegistrationDeadline: now.Add(-time.Hour),
			RegistrationLimit:    &limit,
			RegisteredCount:      1,
		}
		a := event.AvailabilityAt(now)
		assert.False(t, a.IsOpen)
		assert.True(t, a.DeadlinePassed)
		assert.True(t, a.IsFull)
		assert.Equal(t, "Registration deadline passed", a.Message)
	})

	t.Run("full", func(t *testing.T) {
		event := domain.Event{
			Type:                 domain.EventNormal,
			RegistrationDeadline: now.Add(time.Hour),
			RegistrationLimit:    &limit,
			RegisteredCount:      1,
		}
		a := event.AvailabilityAt(now)
		assert.False(t, a.IsOpen)
		assert.Equal(t, "Event is full", a.Message)
	})

	t.Run("out of stock", func(t *testing.T) {
		event := domain.Event{
			Type:                 domain.EventMerchandise,
			RegistrationDeadline: now.Add(time.Hour),
			Variants:             []domain.Variant{{ItemName: "Shirt", Size: "M", StockQuantity: 0}},
		}
		a := event.AvailabilityAt(now)
		assert.False(t, a.IsOpen)
		assert.True(t, a.OutOfStock)
		assert.Equal(t, "All items out of stock", a.Message)
	})
}

func TestIsFree(t *testing.T) {
	assert.True(t, (&domain.Event{}).IsFree())
	assert.False(t, (&domain.Event{RegistrationFee: 0.01}).IsFree())
}
