// Package events carries notifications from the lifecycle, download and chat
// subsystems to UI clients.
package events

import (
	"log"
	"sync"
)

// Event names published on the bus.
const (
	ChatBegin        = "chat:begin"
	ChatDelta        = "chat:delta"
	ChatEnd          = "chat:end"
	ChatsChanged     = "chats:changed"
	ToolCalling      = "tool:calling"
	ToolResult       = "tool:result"
	ModelLoading     = "model:loading"
	ModelReady       = "model:ready"
	ModelError       = "model:error"
	ModelNoModel     = "model:no_model"
	ModelSwitching   = "model:switching"
	ModelsChanged    = "models:changed"
	DownloadProgress = "download:progress"
	DownloadComplete = "download:complete"
	DownloadError    = "download:error"
)

// Event is a named notification with a JSON-encodable payload.
type Event struct {
	Name    string
	Payload any
}

// Publisher receives events. Implementations should be lightweight and
// non-blocking; Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// Nop drops events.
type Nop struct{}

func (Nop) Publish(Event) {}

// OrNop returns p, or Nop when p is nil.
func OrNop(p Publisher) Publisher {
	if p == nil {
		return Nop{}
	}
	return p
}

// safePublisher shields callers from a misbehaving publisher.
type safePublisher struct{ next Publisher }

// Safe wraps p so that a panic inside Publish is logged and swallowed.
// Emission is best-effort and must never fail the operation that emits.
func Safe(p Publisher) Publisher {
	if p == nil {
		return Nop{}
	}
	if s, ok := p.(safePublisher); ok {
		return s
	}
	return safePublisher{next: p}
}

func (s safePublisher) Publish(e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("events event=publish_panic name=%s panic=%v", e.Name, r)
		}
	}()
	s.next.Publish(e)
}

// Multi fans an event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		Safe(p).Publish(e)
	}
}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Named returns the recorded events with the given name.
func (p *MemoryPublisher) Named(name string) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the names of all recorded events in order.
func (p *MemoryPublisher) Names() []string {
	evs := p.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}
