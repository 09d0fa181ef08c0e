package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	stampEventName     = "stamp"
	heartbeatEventName = "heartbeat"
)

// StampEvent is one acknowledgement delivered to live subscribers.
type StampEvent struct {
	DateKey          string `json:"date"`
	StampID          string `json:"stamp_id"`
	Name             string `json:"name"`
	StampedAtSeconds int64  `json:"stamped_at_s"`
}

// StampFeed fans acknowledgement stamps out to per-date subscribers. Slow
// subscribers drop events rather than blocking the publisher; the SSE
// client reconciles through the list endpoint.
type StampFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*stampSubscriber
	nextID      int64
	bufferSize  int
}

type stampSubscriber struct {
	id     int64
	stream chan StampEvent
}

// NewStampFeed constructs an empty feed.
func NewStampFeed() *StampFeed {
	return &StampFeed{
		subscribers: make(map[string]map[int64]*stampSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a listener for one date key. The subscription ends
// when the context is cancelled or the returned cleanup runs; navigating to
// another date means cancelling and subscribing afresh.
func (f *StampFeed) Subscribe(ctx context.Context, dateKey string) (<-chan StampEvent, func()) {
	if dateKey == "" {
		ch := make(chan StampEvent)
		close(ch)
		return ch, func() {}
	}
	subscriber := &stampSubscriber{
		id:     f.nextSequence(),
		stream: make(chan StampEvent, f.bufferSize),
	}
	f.registerSubscriber(dateKey, subscriber)
	cleanup := func() {
		f.unregisterSubscriber(dateKey, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the event to every subscriber of its date key.
func (f *StampFeed) Publish(event StampEvent) {
	if event.DateKey == "" || event.StampID == "" {
		return
	}
	f.mu.RLock()
	subscribers := f.subscribers[event.DateKey]
	if len(subscribers) == 0 {
		f.mu.RUnlock()
		return
	}
	copies := make([]*stampSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	f.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

func (f *StampFeed) nextSequence() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID
}

func (f *StampFeed) registerSubscriber(dateKey string, subscriber *stampSubscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[dateKey]; !ok {
		f.subscribers[dateKey] = make(map[int64]*stampSubscriber)
	}
	f.subscribers[dateKey][subscriber.id] = subscriber
}

// handleStampStream serves the date's acknowledgement feed over SSE. The
// stored list replays first so late joiners see append order from the top,
// then live stamps follow. The subscription dies with the request context,
// so a client switching dates simply drops this stream and opens another.
func (h *httpHandler) handleStampStream(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	stream, cancel := h.feed.Subscribe(c.Request.Context(), date.String())
	defer cancel()

	stamps, err := h.notebook.ListAcknowledgements(c.Request.Context(), date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	for _, stamp := range stamps {
		c.SSEvent(stampEventName, StampEvent{
			DateKey:          stamp.DateKey,
			StampID:          stamp.StampID,
			Name:             stamp.Name,
			StampedAtSeconds: stamp.StampedAtSeconds,
		})
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(stampEventName, event)
			return true
		case <-heartbeat.C:
			c.SSEvent(heartbeatEventName, time.Now().UTC().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (f *StampFeed) unregisterSubscriber(dateKey string, subscriberID int64) {
	f.mu.Lock()
	subscribers := f.subscribers[dateKey]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(f.subscribers, dateKey)
		}
	}
	f.mu.Unlock()
}
