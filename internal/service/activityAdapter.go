package service

import (
	"context"
	"strconv"

	"github.com/ds124wfegd/eventtickets/internal/entity"
	"github.com/ds124wfegd/eventtickets/pkg/kafka"
)

// ActivityAdapter adapts kafka.Producer to ActivityPublisher
type ActivityAdapter struct {
	producer kafka.Producer
}

func NewActivityAdapter(p kafka.Producer) *ActivityAdapter {
	return &ActivityAdapter{producer: p}
}

// Publish keys messages by event so one event's activity stays ordered.
func (a *ActivityAdapter) Publish(ctx context.Context, activity *entity.TicketActivity) error {
	if a.producer == nil {
		return nil
	}

	return a.producer.SendMessage(ctx, strconv.FormatInt(activity.EventID, 10), activity)
}
