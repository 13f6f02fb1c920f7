package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/entity"
	"github.com/ds124wfegd/eventtickets/internal/service"
	"github.com/ds124wfegd/eventtickets/pkg/clock"

	"github.com/sirupsen/logrus"
)

// EventCleanupWorker periodically deletes events that are over and never
// sold a ticket. Deletion goes through EventService, so its rules apply.
type EventCleanupWorker struct {
	eventService service.EventService
	clock        clock.Clock
	interval     time.Duration
}

func NewEventCleanupWorker(eventService service.EventService, clk clock.Clock, interval time.Duration) *EventCleanupWorker {
	return &EventCleanupWorker{
		eventService: eventService,
		clock:        clk,
		interval:     interval,
	}
}

func (w *EventCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Event cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Event cleanup worker stopped")
			return
		case <-ticker.C:
			w.Cleanup(ctx)
		}
	}
}

// Cleanup runs one pass and returns how many events were deleted.
func (w *EventCleanupWorker) Cleanup(ctx context.Context) int {
	events, err := w.eventService.GetAllEvents(ctx, "")
	if err != nil {
		logrus.Errorf("Failed to list events for cleanup: %v", err)
		return 0
	}

	today := entity.DateOf(w.clock.Now())
	deleted := 0
	failed := 0

	for _, event := range events {
		select {
		case <-ctx.Done():
			logrus.Info("Cleanup interrupted by context cancellation")
			return deleted
		default:
		}

		if event.SoldTickets > 0 || event.EndsAfter(today) {
			continue
		}

		err := w.eventService.DeleteEvent(ctx, event.ID)
		switch {
		case err == nil:
			deleted++
			logrus.Debugf("Deleted ended event %d", event.ID)
		case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrConflict):
			// changed since it was listed
		default:
			failed++
			logrus.Errorf("Failed to delete ended event %d: %v", event.ID, err)
		}
	}

	if deleted > 0 || failed > 0 {
		logrus.Infof("Event cleanup completed: %d deleted, %d failed", deleted, failed)
	}
	return deleted
}
