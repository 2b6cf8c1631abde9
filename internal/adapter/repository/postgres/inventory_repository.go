package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

// InventoryRepository implements the inventory ledger on conditional
// updates. The availability check and the decrement are one statement,
// so two callers racing for the last unit cannot both observe it free.
//
// Release idempotency is tracked in inventory_releases, one row per
// released reservation: a release claims the row, a later reserve for
// the same registration clears it. A repeated release for the same
// reservation finds the row claimed and applies nothing, so retry
// loops that lost the first result cannot inflate inventory.
type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) TryReserve(ctx context.Context, eventID, registrationID uuid.UUID, req domain.ReservationRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	defer tx.Rollback()

	if err := clearReleaseClaim(ctx, tx, registrationID); err != nil {
		return err
	}

	if req.Slot {
		err = reserveSlot(ctx, tx, eventID)
	} else {
		err = reserveStock(ctx, tx, eventID, req.Items)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

func (r *InventoryRepository) Release(ctx context.Context, eventID, registrationID uuid.UUID, req domain.ReservationRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	defer tx.Rollback()

	claimed, err := claimRelease(ctx, tx, registrationID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if req.Slot {
		err = releaseSlot(ctx, tx, eventID)
	} else {
		err = releaseStock(ctx, tx, eventID, req.Items)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}
	return nil
}

// claimRelease records that this registration's reservation is being
// returned. A conflicting row means a previous release already applied.
func claimRelease(ctx context.Context, tx *sql.Tx, registrationID uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_releases (registration_id) VALUES ($1)
		 ON CONFLICT (registration_id) DO NOTHING`,
		registrationID,
	)
	if err != nil {
		return false, fmt.Errorf("claim release: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim release: %w", err)
	}
	return affected > 0, nil
}

// clearReleaseClaim re-arms the release guard when a registration takes
// a fresh reservation, e.g. an approval retried after a failed
// finalize.
func clearReleaseClaim(ctx context.Context, tx *sql.Tx, registrationID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_releases WHERE registration_id = $1`,
		registrationID,
	); err != nil {
		return fmt.Errorf("clear release claim: %w", err)
	}
	return nil
}

func reserveSlot(ctx context.Context, tx *sql.Tx, eventID uuid.UUID) error {
	query := `
	UPDATE events
	SET registered_count = registered_count + 1
	WHERE id = $1
	  AND (registration_limit IS NULL OR registered_count < registration_limit)
	`

	result, err := tx.ExecContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if affected == 0 {
		return domain.ErrEventFull
	}
	return nil
}

// releaseSlot is clamped at zero, so a release racing a concurrent
// reset cannot drive the counter negative.
func releaseSlot(ctx context.Context, tx *sql.Tx, eventID uuid.UUID) error {
	query := `
	UPDATE events
	SET registered_count = registered_count - 1
	WHERE id = $1 AND registered_count > 0
	`

	if _, err := tx.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

// reserveStock decrements every requested variant inside the enclosing
// transaction. The first variant that cannot cover its quantity rolls
// the whole transaction back, so a multi-variant request never holds
// some items but not others. Variants are touched in (item, size)
// order, which keeps row-lock order identical across concurrent
// reservations.
func reserveStock(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, items []domain.ItemRequest) error {
	query := `
	UPDATE event_variants
	SET stock_quantity = stock_quantity - $1
	WHERE event_id = $2 AND item_name = $3 AND size = $4 AND stock_quantity >= $1
	`

	for _, item := range sortedItems(items) {
		result, err := tx.ExecContext(ctx, query, item.Quantity, eventID, item.ItemName, item.Size)
		if err != nil {
			return fmt.Errorf("reserve stock %s (%s): %w", item.ItemName, item.Size, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserve stock %s (%s): %w", item.ItemName, item.Size, err)
		}
		if affected == 0 {
			return &domain.OutOfStockError{ItemName: item.ItemName, Size: item.Size}
		}
	}
	return nil
}

func releaseStock(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, items []domain.ItemRequest) error {
	query := `
	UPDATE event_variants
	SET stock_quantity = stock_quantity + $1
	WHERE event_id = $2 AND item_name = $3 AND size = $4
	`

	for _, item := range sortedItems(items) {
		if _, err := tx.ExecContext(ctx, query, item.Quantity, eventID, item.ItemName, item.Size); err != nil {
			return fmt.Errorf("release stock %s (%s): %w", item.ItemName, item.Size, err)
		}
	}
	return nil
}

func sortedItems(items []domain.ItemRequest) []domain.ItemRequest {
	s := make([]domain.ItemRequest, len(items))
	copy(s, items)
	sort.Slice(s, func(i, j int) bool {
		if s[i].ItemName != s[j].ItemName {
			return s[i].ItemName < s[j].ItemName
		}
		return s[i].Size < s[j].Size
	})
	return s
}
