package domain

import "time"

// EventType tags a streamed progress event.
type EventType string

const (
	EventThinking  EventType = "thinking"  // LLM is processing
	EventQuestion  EventType = "question"  // clarification questions for the user
	EventSearching EventType = "searching" // web search in progress
	EventProgress  EventType = "progress"  // step completion update
	EventPlan      EventType = "plan"      // draft or final travel plan
	EventError     EventType = "error"     // terminal failure
	EventComplete  EventType = "complete"  // flow finished
)

// Terminal reports whether the event closes the session's stream.
func (t EventType) Terminal() bool {
	return t == EventComplete || t == EventError
}

// Event is one immutable entry in a session's append-only log. Sequence is
// the emission-order position within the session; it is assigned by the
// emitter and never reused.
type Event struct {
	Sequence  int            `json:"sequence"`
	Type      EventType      `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// IsFinalPlan reports whether the event is a plan event flagged as final.
func (e Event) IsFinalPlan() bool {
	if e.Type != EventPlan {
		return false
	}
	final, _ := e.Metadata["is_final"].(bool)
	return final
}

// Message is a conversation utterance. EventStamp records how many events
// existed in the session log when the message was accepted; it is the sole
// ordering anchor used to interleave messages with events on the client.
type Message struct {
	ID         MessageID `json:"id"`
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	EventStamp int       `json:"event_stamp"`
	CreatedAt  time.Time `json:"created_at"`
}
