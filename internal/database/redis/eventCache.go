package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/entity"

	"github.com/go-redis/redis/v8"
)

const eventKeyPrefix = "event:"

type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventCache(client *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached event, or nil on a cache miss.
func (c *EventCache) Get(ctx context.Context, id int64) (*entity.Event, error) {
	data, err := c.client.Get(ctx, eventKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var event entity.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *EventCache) Set(ctx context.Context, event *entity.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, eventKey(event.ID), data, c.ttl).Err()
}

func (c *EventCache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, eventKey(id)).Err()
}

func eventKey(id int64) string {
	return eventKeyPrefix + strconv.FormatInt(id, 10)
}
