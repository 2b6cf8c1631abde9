package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	query := `
	SELECT id, name, description, event_type, category, eligibility,
	       registration_deadline, start_date, end_date,
	       registration_limit, registered_count, registration_fee,
	       organizer_id, status, created_at
	FROM events
	WHERE id = $1
	`

	var event domain.Event
	var limit sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Type,
		&event.Category,
		&event.Eligibility,
		&event.RegistrationDeadline,
		&event.StartDate,
		&event.EndDate,
		&limit,
		&event.RegisteredCount,
		&event.RegistrationFee,
		&event.OrganizerID,
		&event.Status,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if limit.Valid {
		l := int(limit.Int64)
		event.RegistrationLimit = &l
	}

	variants, err := r.variantsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event.Variants = variants

	return &event, nil
}

func (r *EventRepository) variantsByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Variant, error) {
	query := `
	SELECT id, event_id, item_name, size, price, stock_quantity, purchase_limit
	FROM event_variants
	WHERE event_id = $1
	ORDER BY item_name, size
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(
			&v.ID,
			&v.EventID,
			&v.ItemName,
			&v.Size,
			&v.Price,
			&v.StockQuantity,
			&v.PurchaseLimit,
		); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	return variants, rows.Err()
}
