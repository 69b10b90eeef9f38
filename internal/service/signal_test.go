package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vessel-net/vessel"
)

func eventMessage(t *testing.T, event vessel.Event) *redis.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to encode event: %v", err)
	}
	return &redis.Message{Channel: eventChannel, Payload: string(payload)}
}

func TestRelayDeliversAndFilters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan *redis.Message)
	request := make(chan []string)
	output := make(chan vessel.Event)

	go relay(ctx, ch, request, output)

	request <- []string{"comment."}

	ch <- eventMessage(t, vessel.Event{Type: vessel.EventPublicationCreated, Subject: "vh00"})
	ch <- eventMessage(t, vessel.Event{Type: vessel.EventCommentConfirmed, Subject: "a@example.com"})

	got := <-output
	if got.Type != vessel.EventCommentConfirmed {
		t.Fatalf("filter let the wrong event through: %s", got.Type)
	}
}

func TestRelayClosesOutputOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan *redis.Message)
	request := make(chan []string)
	output := make(chan vessel.Event)

	go relay(ctx, ch, request, output)

	// Park the relay mid-send with nobody reading output, the shape the
	// socket loop leaves behind when the connection drops during a
	// burst.
	ch <- eventMessage(t, vessel.Event{Type: vessel.EventCommentConfirmed})
	time.Sleep(10 * time.Millisecond)
	cancel()

	// Draining terminates only if the relay closed output on its way
	// out; a send-side close elsewhere would have panicked instead.
	for range output {
	}
}

func TestRelayStopsWhenRequestCloses(t *testing.T) {
	ctx := context.Background()

	ch := make(chan *redis.Message)
	request := make(chan []string)
	output := make(chan vessel.Event)

	go relay(ctx, ch, request, output)

	close(request)

	if _, ok := <-output; ok {
		t.Fatal("expected output to close once the subscription side hung up")
	}
}
