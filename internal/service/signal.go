package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vessel-net/vessel"
)

const eventChannel = "vessel:events"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event vessel.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, eventChannel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime relays published events to a websocket session. The request
// channel carries event-type prefix subscriptions; an empty filter set
// receives everything. Realtime owns output and closes it on return, so
// the consumer observes shutdown as a closed channel instead of racing
// a close against an in-flight send.
func (s *SignalService) Realtime(ctx context.Context, request <-chan []string, output chan<- vessel.Event) {
	pubsub := s.rdb.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	relay(ctx, pubsub.Channel(), request, output)
}

func relay(ctx context.Context, ch <-chan *redis.Message, request <-chan []string, output chan<- vessel.Event) {
	defer close(output)

	var filters []string

	for {
		select {
		case <-ctx.Done():
			return
		case prefixes, ok := <-request:
			if !ok {
				return
			}
			filters = prefixes
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event vessel.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			if !matchesFilter(filters, event.Type) {
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func matchesFilter(filters []string, eventType string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.HasPrefix(eventType, f) {
			return true
		}
	}
	return false
}
