// Package timeline reconstructs the single chronological conversation view
// a client renders: user messages interleaved with stream events, ordered
// by each message's event stamp and filtered of transport noise. The build
// is a pure function over its inputs and never mutates the underlying log.
package timeline

import (
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// ItemKind distinguishes timeline entries.
type ItemKind string

const (
	KindMessage ItemKind = "message"
	KindEvent   ItemKind = "event"
)

// Item is one display entry. Key is stable across rebuilds so renderers can
// diff successive builds.
type Item struct {
	Key      string
	Kind     ItemKind
	Type     domain.EventType
	Role     domain.Role
	Content  string
	Metadata map[string]any
	Sequence int
}

// Drop rules. The placeholder question and the waiting markers exist in the
// raw log for stream consumers but never belong in a rendered timeline.
const (
	placeholderQuestion = "Please answer the questions above"
	waitingPrefix       = "Waiting for"
)

// keep reports whether an event survives filtering.
func keep(e domain.Event) bool {
	switch e.Type {
	case domain.EventQuestion:
		return e.Content != placeholderQuestion
	case domain.EventProgress:
		if e.Content == "" {
			return false
		}
		return !strings.HasPrefix(e.Content, waitingPrefix)
	}
	return true
}

// Build merges user messages into the event sequence. For each message in
// send order it first drains every not-yet-placed surviving event whose
// sequence is strictly below the message's event stamp, then places the
// message; remaining events are drained after the last message.
//
// Build is deterministic and idempotent: rebuilding with a superset of
// events (same messages) extends the previous output without reordering
// already-placed items. Messages with a role other than user are skipped;
// the server's event log already carries the system's side of the dialog.
func Build(messages []domain.Message, events []domain.Event) []Item {
	items := make([]Item, 0, len(messages)+len(events))
	next := 0 // index of the first event not yet placed

	drain := func(below int) {
		for next < len(events) && (below < 0 || events[next].Sequence < below) {
			if e := events[next]; keep(e) {
				items = append(items, eventItem(e))
			}
			next++
		}
	}

	for _, msg := range messages {
		if msg.Role != domain.RoleUser {
			continue
		}
		drain(msg.EventStamp)
		items = append(items, Item{
			Key:     "msg-" + string(msg.ID),
			Kind:    KindMessage,
			Role:    msg.Role,
			Content: msg.Text,
		})
	}
	drain(-1)

	return items
}

func eventItem(e domain.Event) Item {
	return Item{
		Key:      fmt.Sprintf("evt-%d", e.Sequence),
		Kind:     KindEvent,
		Type:     e.Type,
		Content:  e.Content,
		Metadata: e.Metadata,
		Sequence: e.Sequence,
	}
}
