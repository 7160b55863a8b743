package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
)

// Event is one server-sent event. Data is encoded as JSON.
type Event struct {
	Type string
	Data any
}

func (e Event) encode() (string, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, data), nil
}

// subscriber is a single SSE connection.
type subscriber struct {
	ch        chan string
	sessionID string
}

// Broadcaster fans events out to the SSE connections of each session.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*subscriber]struct{}),
	}
}

// Register adds a subscriber for a session and returns it.
func (b *Broadcaster) Register(sessionID string) *subscriber {
	sub := &subscriber{
		ch:        make(chan string, sseChannelBuffer),
		sessionID: sessionID,
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unregister removes a subscriber and closes its channel.
func (b *Broadcaster) Unregister(sub *subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// Broadcast sends evt to every subscriber of a session. Slow subscribers
// whose buffer is full miss the event.
func (b *Broadcaster) Broadcast(sessionID string, evt Event) error {
	msg, err := evt.encode()
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.sessionID != sessionID {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

// SubscriberCount returns the number of open streams for a session.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for sub := range b.subs {
		if sub.sessionID == sessionID {
			n++
		}
	}
	return n
}

// ServeSSE streams a session's events until the client goes away. initial,
// when set, is sent first.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, sessionID string, initial *Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := b.Register(sessionID)
	defer b.Unregister(sub)

	if initial != nil {
		if msg, err := initial.encode(); err == nil {
			fmt.Fprint(w, msg)
			flusher.Flush()
		}
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.ch:
			if !ok {
				return
			}
			fmt.Fprint(w, msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
