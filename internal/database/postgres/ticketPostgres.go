package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/entity"
)

const ticketColumns = `id, event_id, status, created_at, redeemed_at`

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	query := `
		INSERT INTO tickets (event_id, status, created_at, redeemed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		ticket.EventID,
		ticket.Status,
		ticket.CreatedAt,
		ticket.RedeemedAt,
	).Scan(&ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id int64) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *ticketRepository) getOne(ctx context.Context, query string, id int64) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := scanTicket(conn(ctx, r.db).QueryRowContext(ctx, query, id), &ticket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

// GetAll returns tickets ordered by id, optionally only those of one event.
func (r *ticketRepository) GetAll(ctx context.Context, eventID *int64) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY id`
	args := []interface{}{}
	if eventID != nil {
		query = `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY id`
		args = append(args, *eventID)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*entity.Ticket, 0)
	for rows.Next() {
		var ticket entity.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	return expectOneRow(result, entity.ErrTicketNotFound)
}

// MarkRedeemed flips a sold ticket to redeemed. It reports false when the
// ticket is missing or was already redeemed.
func (r *ticketRepository) MarkRedeemed(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET redeemed_at = $1, status = $2
		WHERE id = $3 AND redeemed_at IS NULL
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, at, entity.TicketStatusRedeemed, id)
	if err != nil {
		return false, fmt.Errorf("failed to redeem ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func scanTicket(row rowScanner, ticket *entity.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.RedeemedAt,
	)
}
