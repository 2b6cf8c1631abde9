package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

const (
	uniqueViolation = "23505"

	ticketConstraint = "registrations_ticket_id_key"
	activeConstraint = "registrations_active_participant_event_idx"
)

type RegistrationRepository struct {
	db *sql.DB
}

func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `
	id, event_id, participant_id, ticket_id, status, form_data,
	team_name, payment_proof, check_in_code, attended, attended_at, created_at`

func (r *RegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	defer tx.Rollback()

	var formData []byte
	if reg.FormData != nil {
		formData, err = json.Marshal(reg.FormData)
		if err != nil {
			return fmt.Errorf("encode form data: %w", err)
		}
	}

	query := `
	INSERT INTO registrations
		(id, event_id, participant_id, ticket_id, status, form_data,
		 team_name, payment_proof, check_in_code, attended, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10)
	`

	_, err = tx.ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.ParticipantID, reg.TicketID, reg.Status,
		formData, reg.TeamName, reg.PaymentProof, reg.CheckInCode, reg.CreatedAt,
	)
	if err != nil {
		return mapInsertError(err)
	}

	if len(reg.Items) > 0 {
		itemQuery := `
		INSERT INTO registration_items (id, registration_id, item_name, size, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4, $5, $6)
		`

		stmt, err := tx.PrepareContext(ctx, itemQuery)
		if err != nil {
			return fmt.Errorf("prepare item statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range reg.Items {
			_, err := stmt.ExecContext(ctx, uuid.New(), reg.ID, item.ItemName, item.Size, item.Quantity, item.Price)
			if err != nil {
				return fmt.Errorf("insert item %s (%s): %w", item.ItemName, item.Size, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// mapInsertError turns the storage-level uniqueness guarantees into
// domain outcomes: the partial index on active (participant, event)
// pairs is the duplicate-registration guard, the ticket constraint is
// the identifier-collision guard.
func mapInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case activeConstraint:
			return domain.ErrAlreadyRegistered
		case ticketConstraint:
			return domain.ErrTicketCollision
		}
	}
	return fmt.Errorf("insert registration: %w", err)
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *RegistrationRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE ticket_id = $1`
	return r.getOne(ctx, query, ticketID)
}

func (r *RegistrationRepository) FindActive(ctx context.Context, eventID, participantID uuid.UUID) (*domain.Registration, error) {
	query := `SELECT` + registrationColumns + `
	FROM registrations
	WHERE event_id = $1 AND participant_id = $2 AND status IN ('Pending', 'Successful')`

	reg, err := r.getOne(ctx, query, eventID, participantID)
	if errors.Is(err, domain.ErrRegistrationNotFound) {
		return nil, nil
	}
	return reg, err
}

func (r *RegistrationRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Registration, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}

	items, err := r.itemsFor(ctx, []uuid.UUID{reg.ID})
	if err != nil {
		return nil, err
	}
	reg.Items = items[reg.ID]

	return reg, nil
}

func (r *RegistrationRepository) TicketExists(ctx context.Context, ticketID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE ticket_id = $1)`,
		ticketID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ticket: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) Transition(ctx context.Context, id uuid.UUID, from, to domain.RegistrationStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("transition registration: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition registration: %w", err)
	}
	return affected > 0, nil
}

func (r *RegistrationRepository) Finalize(ctx context.Context, id uuid.UUID, checkInCode string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations
		 SET status = 'Successful', check_in_code = $1
		 WHERE id = $2 AND status = 'Pending'`,
		checkInCode, id,
	)
	if err != nil {
		return false, fmt.Errorf("finalize registration: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finalize registration: %w", err)
	}
	return affected > 0, nil
}

func (r *RegistrationRepository) MarkAttended(ctx context.Context, ticketID string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations
		 SET attended = TRUE, attended_at = $1
		 WHERE ticket_id = $2 AND status = 'Successful' AND attended = FALSE`,
		at, ticketID,
	)
	if err != nil {
		return false, fmt.Errorf("mark attended: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark attended: %w", err)
	}
	return affected > 0, nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Registration, error) {
	query := `SELECT` + registrationColumns + `
	FROM registrations
	WHERE event_id = $1
	ORDER BY created_at DESC`

	return r.list(ctx, query, eventID)
}

func (r *RegistrationRepository) ListPendingByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Registration, error) {
	query := `
	SELECT r.id, r.event_id, r.participant_id, r.ticket_id, r.status, r.form_data,
	       r.team_name, r.payment_proof, r.check_in_code, r.attended, r.attended_at, r.created_at
	FROM registrations r
	JOIN events e ON e.id = r.event_id
	WHERE e.organizer_id = $1 AND r.status = 'Pending'
	ORDER BY r.created_at ASC`

	return r.list(ctx, query, organizerID)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []domain.Registration
	var ids []uuid.UUID
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
		ids = append(ids, reg.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return regs, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		regs[i].Items = items[regs[i].ID]
	}
	return regs, nil
}

func (r *RegistrationRepository) itemsFor(ctx context.Context, registrationIDs []uuid.UUID) (map[uuid.UUID][]domain.PurchasedItem, error) {
	query := `
	SELECT registration_id, item_name, size, quantity, price_at_purchase
	FROM registration_items
	WHERE registration_id = ANY($1)
	ORDER BY item_name, size
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(registrationIDs))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.PurchasedItem)
	for rows.Next() {
		var regID uuid.UUID
		var item domain.PurchasedItem
		if err := rows.Scan(&regID, &item.ItemName, &item.Size, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items[regID] = append(items[regID], item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	var reg domain.Registration
	var formData []byte
	var attendedAt sql.NullTime

	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.ParticipantID,
		&reg.TicketID,
		&reg.Status,
		&formData,
		&reg.TeamName,
		&reg.PaymentProof,
		&reg.CheckInCode,
		&reg.Attended,
		&attendedAt,
		&reg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &reg.FormData); err != nil {
			return nil, fmt.Errorf("decode form data: %w", err)
		}
	}
	if attendedAt.Valid {
		reg.AttendedAt = &attendedAt.Time
	}

	return &reg, nil
}
