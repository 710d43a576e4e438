package transport

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind identifies one kind of transport event.
type EventKind string

const (
	EventReady    EventKind = "ready"    // duration known, resource playable
	EventPlay     EventKind = "play"     // playback started
	EventPause    EventKind = "pause"    // playback stopped
	EventFinish   EventKind = "finish"   // natural end or requested range end
	EventSeek     EventKind = "seek"     // position jumped
	EventPosition EventKind = "position" // periodic update while playing
	EventError    EventKind = "error"    // load or decode failure
)

// Event is one transport state change with its typed payload.
type Event struct {
	Kind     EventKind `json:"kind"`
	URL      string    `json:"url,omitempty"`
	Position float64   `json:"position"`
	Duration float64   `json:"duration"`
	Err      string    `json:"err,omitempty"`
}

// Bus fans transport events out to subscribers. Publishing never blocks: a
// subscriber that falls behind drops events rather than stalling the engine.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (b *Bus) Subscribe() (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Publish delivers the event to every subscriber, dropping for full buffers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
