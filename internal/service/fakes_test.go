package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/entity"
)

type memTxKey struct{}

// memStore is an in-memory stand-in for Postgres. Transactions are serialized
// by txMu and rolled back by restoring a snapshot.
type memStore struct {
	txMu sync.Mutex

	mu           sync.Mutex
	events       map[int64]entity.Event
	tickets      map[int64]entity.Ticket
	nextEventID  int64
	nextTicketID int64

	// failTicketCreate makes the next ticket insert fail.
	failTicketCreate error
}

func newMemStore() *memStore {
	return &memStore{
		events:  make(map[int64]entity.Event),
		tickets: make(map[int64]entity.Ticket),
	}
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	events := make(map[int64]entity.Event, len(s.events))
	for k, v := range s.events {
		events[k] = v
	}
	tickets := make(map[int64]entity.Ticket, len(s.tickets))
	for k, v := range s.tickets {
		tickets[k] = v
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.events = events
		s.tickets = tickets
		s.mu.Unlock()
		return err
	}
	return nil
}

// seedEvent stores event as is, counters included.
func (s *memStore) seedEvent(event entity.Event) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	event.ID = s.nextEventID
	s.events[event.ID] = event
	return event.ID
}

func (s *memStore) seedTicket(ticket entity.Ticket) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicketID++
	ticket.ID = s.nextTicketID
	s.tickets[ticket.ID] = ticket
	return ticket.ID
}

func (s *memStore) event(id int64) (entity.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	return e, ok
}

func (s *memStore) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

type memEventRepo struct{ s *memStore }

func (r memEventRepo) Create(ctx context.Context, event *entity.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextEventID++
	event.ID = r.s.nextEventID
	r.s.events[event.ID] = *event
	return nil
}

func (r memEventRepo) GetByID(ctx context.Context, id int64) (*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	return &e, nil
}

func (r memEventRepo) GetAll(ctx context.Context, name string) ([]*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Event
	for _, e := range r.s.events {
		if name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(name)) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memEventRepo) Update(ctx context.Context, event *entity.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.events[event.ID]
	if !ok {
		return entity.ErrEventNotFound
	}
	current.Name = event.Name
	current.StartDate = event.StartDate
	current.EndDate = event.EndDate
	current.TotalTickets = event.TotalTickets
	r.s.events[event.ID] = current
	return nil
}

func (r memEventRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return entity.ErrEventNotFound
	}
	delete(r.s.events, id)
	for tid, t := range r.s.tickets {
		if t.EventID == id {
			delete(r.s.tickets, tid)
		}
	}
	return nil
}

func (r memEventRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Event, error) {
	return r.GetByID(ctx, id)
}

func (r memEventRepo) IncrementSold(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok || e.SoldTickets >= e.TotalTickets {
		return false, nil
	}
	e.SoldTickets++
	r.s.events[id] = e
	return true, nil
}

func (r memEventRepo) IncrementRedeemed(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return entity.ErrTicketEventNotFound
	}
	e.RedeemedTickets++
	r.s.events[id] = e
	return nil
}

type memTicketRepo struct{ s *memStore }

func (r memTicketRepo) Create(ctx context.Context, ticket *entity.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failTicketCreate; err != nil {
		r.s.failTicketCreate = nil
		return err
	}
	r.s.nextTicketID++
	ticket.ID = r.s.nextTicketID
	r.s.tickets[ticket.ID] = *ticket
	return nil
}

func (r memTicketRepo) GetByID(ctx context.Context, id int64) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, entity.ErrTicketNotFound
	}
	return &t, nil
}

func (r memTicketRepo) GetAll(ctx context.Context, eventID *int64) ([]*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Ticket
	for _, t := range r.s.tickets {
		if eventID != nil && t.EventID != *eventID {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTicketRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return entity.ErrTicketNotFound
	}
	delete(r.s.tickets, id)
	return nil
}

func (r memTicketRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r memTicketRepo) MarkRedeemed(ctx context.Context, id int64, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok || t.RedeemedAt != nil {
		return false, nil
	}
	t.RedeemedAt = &at
	t.Status = entity.TicketStatusRedeemed
	r.s.tickets[id] = t
	return true, nil
}

type memCache struct {
	mu      sync.Mutex
	events  map[int64]entity.Event
	deletes int
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{events: make(map[int64]entity.Event)}
}

func (c *memCache) Get(ctx context.Context, id int64) (*entity.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("cache unavailable")
	}
	e, ok := c.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *memCache) Set(ctx context.Context, event *entity.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[event.ID] = *event
	return nil
}

func (c *memCache) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.events, id)
	return nil
}

func (c *memCache) has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.events[id]
	return ok
}

type recordingPublisher struct {
	mu         sync.Mutex
	activities []entity.TicketActivity
	err        error
}

func (p *recordingPublisher) Publish(ctx context.Context, activity *entity.TicketActivity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.activities = append(p.activities, *activity)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.activities))
	for _, a := range p.activities {
		out = append(out, a.Type)
	}
	return out
}
