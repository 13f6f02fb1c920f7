package entity

import (
	"time"
)

type TicketStatus string

const (
	TicketStatusSold     TicketStatus = "sold"
	TicketStatusRedeemed TicketStatus = "redeemed"
)

type Ticket struct {
	ID         int64        `json:"id" db:"id"`
	EventID    int64        `json:"event_id" db:"event_id"`
	Status     TicketStatus `json:"status" db:"status"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	RedeemedAt *time.Time   `json:"redeemed_at" db:"redeemed_at"`
}

func (t *Ticket) Redeemed() bool {
	return t.RedeemedAt != nil
}

// TicketActivity describes a committed ticket state change.
type TicketActivity struct {
	Type       string    `json:"type"`
	TicketID   int64     `json:"ticket_id"`
	EventID    int64     `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	TicketActivitySold     = "ticket.sold"
	TicketActivityRedeemed = "ticket.redeemed"
)
