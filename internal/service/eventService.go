package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	repository "github.com/ds124wfegd/eventtickets/internal/database/postgres"
	"github.com/ds124wfegd/eventtickets/internal/entity"
	"github.com/ds124wfegd/eventtickets/pkg/clock"

	"github.com/sirupsen/logrus"
)

// CreateEventRequest represents the data needed to create an event
type CreateEventRequest struct {
	Name         string      `json:"name"`
	StartDate    entity.Date `json:"start_date"`
	EndDate      entity.Date `json:"end_date"`
	TotalTickets int         `json:"total_tickets"`
}

// UpdateEventRequest represents a partial update; nil fields are kept
type UpdateEventRequest struct {
	Name         *string      `json:"name,omitempty"`
	StartDate    *entity.Date `json:"start_date,omitempty"`
	EndDate      *entity.Date `json:"end_date,omitempty"`
	TotalTickets *int         `json:"total_tickets,omitempty"`
}

type eventService struct {
	tx        repository.Transactor
	eventRepo repository.EventRepository
	cache     EventCache
	clock     clock.Clock
}

// NewEventService creates a new instance of EventService. cache may be nil.
func NewEventService(
	tx repository.Transactor,
	eventRepo repository.EventRepository,
	cache EventCache,
	clk clock.Clock,
) EventService {
	return &eventService{
		tx:        tx,
		eventRepo: eventRepo,
		cache:     cache,
		clock:     clk,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, req *CreateEventRequest) (*entity.Event, error) {
	today := entity.DateOf(s.clock.Now())

	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, entity.NewValidationError("start date and end date are required")
	}
	if req.StartDate.Before(today) {
		return nil, entity.NewValidationError("start date must be today or a future date")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, entity.NewValidationError("end date cannot be earlier than the start date")
	}
	if err := validateTotalTickets(req.TotalTickets); err != nil {
		return nil, err
	}

	event := &entity.Event{
		Name:         name,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TotalTickets: req.TotalTickets,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"event_id":      event.ID,
		"total_tickets": event.TotalTickets,
	}).Info("Event created")

	return event, nil
}

// GetEvent returns entity.ErrEventNotFound when the event does not exist.
func (s *eventService) GetEvent(ctx context.Context, id int64) (*entity.Event, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			logrus.Warnf("Event cache read failed for event %d: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, event); err != nil {
			logrus.Warnf("Event cache write failed for event %d: %v", id, err)
		}
	}

	return event, nil
}

func (s *eventService) GetAllEvents(ctx context.Context, name string) ([]*entity.Event, error) {
	events, err := s.eventRepo.GetAll(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get all events: %w", err)
	}

	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id int64, req *UpdateEventRequest) (*entity.Event, error) {
	today := entity.DateOf(s.clock.Now())

	var updated *entity.Event
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.eventRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if err := applyEventUpdate(event, req, today); err != nil {
			return err
		}

		if err := s.eventRepo.Update(txCtx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	logrus.WithField("event_id", id).Info("Event updated")

	return updated, nil
}

// DeleteEvent removes an event that has ended and never sold a ticket.
func (s *eventService) DeleteEvent(ctx context.Context, id int64) error {
	today := entity.DateOf(s.clock.Now())

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.eventRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if event.SoldTickets > 0 {
			return entity.ErrEventHasSoldTickets
		}
		if event.EndsAfter(today) {
			return entity.ErrEventNotEnded
		}

		return s.eventRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	logrus.WithField("event_id", id).Info("Event deleted")

	return nil
}

func (s *eventService) invalidate(ctx context.Context, id int64) {
	invalidateEvent(ctx, s.cache, id)
}

func invalidateEvent(ctx context.Context, cache EventCache, id int64) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, id); err != nil {
		logrus.Warnf("Event cache invalidation failed for event %d: %v", id, err)
	}
}

// applyEventUpdate validates req against the current event and copies the
// supplied fields onto it.
func applyEventUpdate(event *entity.Event, req *UpdateEventRequest, today entity.Date) error {
	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return err
		}
		event.Name = name
	}

	if req.StartDate != nil && req.StartDate.Before(today) {
		return entity.NewValidationError("start date cannot be earlier than today")
	}

	startDate := event.StartDate
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	endDate := event.EndDate
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	if endDate.Before(startDate) {
		if req.EndDate != nil {
			return entity.NewValidationError("end date cannot be earlier than the start date")
		}
		return entity.NewValidationError("start date cannot be later than the end date")
	}

	if req.TotalTickets != nil {
		total := *req.TotalTickets
		if total < event.SoldTickets {
			return entity.NewValidationError(
				"cannot set total tickets to %d as %d tickets are already sold", total, event.SoldTickets)
		}
		if total < entity.MinTotalTickets {
			return entity.NewValidationError("total tickets must be at least %d", entity.MinTotalTickets)
		}
		if total > entity.MaxTotalTickets {
			return entity.NewValidationError("total tickets must be between %d and %d",
				entity.MinTotalTickets, entity.MaxTotalTickets)
		}
		event.TotalTickets = total
	}

	event.StartDate = startDate
	event.EndDate = endDate
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", entity.NewValidationError("event name must not be empty")
	}
	if utf8.RuneCountInString(name) > entity.MaxEventNameLen {
		return "", entity.NewValidationError("event name must be at most %d characters", entity.MaxEventNameLen)
	}
	return name, nil
}

func validateTotalTickets(total int) error {
	if total < entity.MinTotalTickets || total > entity.MaxTotalTickets {
		return entity.NewValidationError("total tickets must be between %d and %d",
			entity.MinTotalTickets, entity.MaxTotalTickets)
	}
	return nil
}
