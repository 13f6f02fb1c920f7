package entity

const (
	MinTotalTickets = 1
	MaxTotalTickets = 300
	MaxEventNameLen = 256
)

type Event struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	StartDate       Date   `json:"start_date" db:"start_date"`
	EndDate         Date   `json:"end_date" db:"end_date"`
	TotalTickets    int    `json:"total_tickets" db:"total_tickets"`
	SoldTickets     int    `json:"sold_tickets" db:"sold_tickets"`
	RedeemedTickets int    `json:"redeemed_tickets" db:"redeemed_tickets"`
}

func (e *Event) AvailableTickets() int {
	return e.TotalTickets - e.SoldTickets
}

func (e *Event) SoldOut() bool {
	return e.SoldTickets >= e.TotalTickets
}

// InValidityWindow reports whether day lies in [StartDate, EndDate].
func (e *Event) InValidityWindow(day Date) bool {
	return !day.Before(e.StartDate) && !day.After(e.EndDate)
}

// EndsAfter reports whether the event still has days left after day.
func (e *Event) EndsAfter(day Date) bool {
	return e.EndDate.After(day)
}
