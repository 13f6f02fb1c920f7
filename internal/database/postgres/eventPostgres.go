package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ds124wfegd/eventtickets/internal/entity"
)

const eventColumns = `id, name, start_date, end_date, total_tickets, sold_tickets, redeemed_tickets`

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (name, start_date, end_date, total_tickets, sold_tickets, redeemed_tickets)
		VALUES ($1, $2, $3, $4, 0, 0)
		RETURNING id, sold_tickets, redeemed_tickets
	`

	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		event.Name,
		event.StartDate,
		event.EndDate,
		event.TotalTickets,
	).Scan(&event.ID, &event.SoldTickets, &event.RedeemedTickets)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id int64) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) getOne(ctx context.Context, query string, id int64) (*entity.Event, error) {
	var event entity.Event
	err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx, query, id), &event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// GetAll returns events ordered by start date. A non-empty name keeps only
// events whose name contains it, ignoring case.
func (r *eventRepository) GetAll(ctx context.Context, name string) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY start_date, id
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, escapeLike(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.Event, 0)
	for rows.Next() {
		var event entity.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET name = $1, start_date = $2, end_date = $3, total_tickets = $4
		WHERE id = $5
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		event.Name,
		event.StartDate,
		event.EndDate,
		event.TotalTickets,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return expectOneRow(result, entity.ErrEventNotFound)
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return expectOneRow(result, entity.ErrEventNotFound)
}

// IncrementSold takes one ticket from the event's capacity. It reports false
// when the event is sold out or does not exist; the row is left untouched.
func (r *eventRepository) IncrementSold(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE events
		SET sold_tickets = sold_tickets + 1
		WHERE id = $1 AND sold_tickets < total_tickets
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to increment sold tickets: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *eventRepository) IncrementRedeemed(ctx context.Context, id int64) error {
	query := `
		UPDATE events
		SET redeemed_tickets = redeemed_tickets + 1
		WHERE id = $1 AND redeemed_tickets < sold_tickets
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment redeemed tickets: %w", err)
	}

	return expectOneRow(result,
		entity.NewIntegrityError("redeemed tickets of event %d would exceed sold tickets", id))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner, event *entity.Event) error {
	return row.Scan(
		&event.ID,
		&event.Name,
		&event.StartDate,
		&event.EndDate,
		&event.TotalTickets,
		&event.SoldTickets,
		&event.RedeemedTickets,
	)
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
