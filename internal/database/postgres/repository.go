package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/entity"
)

// Transactor runs fn inside a single database transaction. Repository calls
// made with the context passed to fn join that transaction; fn returning an
// error rolls everything back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id int64) (*entity.Event, error)
	GetAll(ctx context.Context, name string) ([]*entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id int64) error

	// Locking and counter operations, meant to run inside WithTx
	GetForUpdate(ctx context.Context, id int64) (*entity.Event, error)
	IncrementSold(ctx context.Context, id int64) (bool, error)
	IncrementRedeemed(ctx context.Context, id int64) error
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	GetByID(ctx context.Context, id int64) (*entity.Ticket, error)
	GetAll(ctx context.Context, eventID *int64) ([]*entity.Ticket, error)
	Delete(ctx context.Context, id int64) error

	GetForUpdate(ctx context.Context, id int64) (*entity.Ticket, error)
	MarkRedeemed(ctx context.Context, id int64, at time.Time) (bool, error)
}
