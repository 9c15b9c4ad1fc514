// Package session owns the per-session event log, its fan-out to stream
// subscribers, and the turn controller that drives the stage graph.
package session

import (
	"sync"
	"time"

	"github.com/voyantlabs/voyant-agent/internal/domain"
	"github.com/voyantlabs/voyant-agent/internal/observability"
)

// subscriberHeadroom is the channel capacity reserved beyond the replayed
// log for events emitted while a subscriber is connected.
const subscriberHeadroom = 256

// Emitter is the append-only event log of one session plus its live
// subscribers. Every subscriber sees the identical, complete event
// sequence: Subscribe replays the whole log before any live event, and
// emission order is total per session. After a terminal event the emitter
// closes every subscriber channel and rejects further emits.
type Emitter struct {
	mu     sync.Mutex
	log    []domain.Event
	subs   map[int]chan domain.Event
	nextID int
	closed bool
	now    func() time.Time
}

func NewEmitter() *Emitter {
	return &Emitter{
		subs: make(map[int]chan domain.Event),
		now:  time.Now,
	}
}

// Emit appends an event and notifies all live subscribers in order. A
// subscriber that cannot keep up (full channel) is dropped; it can
// reconnect and replay the full log.
func (e *Emitter) Emit(t domain.EventType, content string, metadata map[string]any) domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.Event{}
	}

	ev := domain.Event{
		Sequence:  len(e.log),
		Type:      t,
		Content:   content,
		Metadata:  metadata,
		Timestamp: e.now(),
	}
	e.log = append(e.log, ev)
	observability.EventsEmitted.WithLabelValues(string(t)).Inc()

	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			delete(e.subs, id)
			close(ch)
		}
	}

	if t.Terminal() {
		e.closed = true
		for id, ch := range e.subs {
			delete(e.subs, id)
			close(ch)
		}
	}
	return ev
}

// Subscription delivers a session's events in order, starting from the
// beginning of the log. Cancel releases the subscription; the channel is
// also closed server-side after a terminal event.
type Subscription struct {
	ch      chan domain.Event
	cancel  func()
	oneShot sync.Once
}

// Events is the ordered event channel.
func (s *Subscription) Events() <-chan domain.Event { return s.ch }

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() { s.oneShot.Do(s.cancel) }

// Subscribe returns a subscription whose channel is pre-loaded with the
// full existing log, followed by all future events. If the session already
// reached a terminal event the channel is closed after the replay.
func (e *Emitter) Subscribe() *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan domain.Event, len(e.log)+subscriberHeadroom)
	for _, ev := range e.log {
		ch <- ev
	}

	if e.closed {
		close(ch)
		return &Subscription{ch: ch, cancel: func() {}}
	}

	id := e.nextID
	e.nextID++
	e.subs[id] = ch

	return &Subscription{
		ch: ch,
		cancel: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if ch, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(ch)
			}
		},
	}
}

// Len returns the current log length. Used to stamp user messages with the
// number of events that existed when they were accepted.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.log)
}

// Events returns a snapshot copy of the log.
func (e *Emitter) Events() []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Event(nil), e.log...)
}

// Closed reports whether a terminal event has been emitted.
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Typed helpers mirroring the seven event kinds.

func (e *Emitter) Thinking(content string) {
	e.Emit(domain.EventThinking, content, nil)
}

func (e *Emitter) Searching(content, query string) {
	e.Emit(domain.EventSearching, content, map[string]any{"query": query})
}

func (e *Emitter) Progress(content, step string) {
	e.Emit(domain.EventProgress, content, map[string]any{"step": step})
}

func (e *Emitter) Question(content string, questions []string) {
	e.Emit(domain.EventQuestion, content, map[string]any{"questions": questions})
}

func (e *Emitter) Plan(content string, final bool) {
	e.Emit(domain.EventPlan, content, map[string]any{"is_final": final})
}

func (e *Emitter) Error(content, errorType string) {
	e.Emit(domain.EventError, content, map[string]any{"error_type": errorType})
}

func (e *Emitter) Complete(content string) {
	e.Emit(domain.EventComplete, content, nil)
}
