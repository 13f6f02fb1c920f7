package service

import (
	"context"

	"github.com/ds124wfegd/eventtickets/internal/entity"
)

type EventService interface {
	CreateEvent(ctx context.Context, req *CreateEventRequest) (*entity.Event, error)
	GetEvent(ctx context.Context, id int64) (*entity.Event, error)
	GetAllEvents(ctx context.Context, name string) ([]*entity.Event, error)
	UpdateEvent(ctx context.Context, id int64, req *UpdateEventRequest) (*entity.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// TicketService sells and redeems tickets against their event's capacity and
// validity window.
type TicketService interface {
	SellTicket(ctx context.Context, eventID int64) (*entity.Ticket, error)
	RedeemTicket(ctx context.Context, ticketID int64) (*entity.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*entity.Ticket, error)
	GetAllTickets(ctx context.Context, eventID *int64) ([]*entity.Ticket, error)
	GetEventTickets(ctx context.Context, eventID int64) ([]*entity.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) error
}

// EventCache is an optional read-through cache for single events. A nil
// event with a nil error is a miss.
type EventCache interface {
	Get(ctx context.Context, id int64) (*entity.Event, error)
	Set(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id int64) error
}

// ActivityPublisher announces committed ticket sales and redemptions.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity *entity.TicketActivity) error
}
