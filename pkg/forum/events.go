package forum

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the kind of realtime event carried on the push
// channel. Unknown types must be tolerated by consumers: the service may
// introduce new event types ahead of clients.
type EventType string

const (
	// EventNewQuestion announces a question just created on the service
	EventNewQuestion EventType = "new_question"

	// EventNewAnswer announces an answer just created on the service
	EventNewAnswer EventType = "new_answer"

	// EventQuestionUpdated announces an admin status change
	EventQuestionUpdated EventType = "question_updated"

	// EventAnswerDeleted announces an admin answer deletion
	EventAnswerDeleted EventType = "answer_deleted"
)

// Event is the tagged union broadcast to every connected client.
// Exactly one of Question or Answer is populated, according to Type:
//
//	new_question, question_updated → Question
//	new_answer, answer_deleted     → Answer
//
// Events are delivered at most once per connection and are never queued
// across disconnects; a reconnecting client must pull to repair the gap.
type Event struct {
	Type     EventType `json:"type"`
	Question *Question `json:"-"`
	Answer   *Answer   `json:"-"`
}

// eventWire is the on-the-wire shape: a type tag plus a raw data payload
// decoded according to the tag.
type eventWire struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ErrUnknownEventType is returned by DecodeEvent for type tags this
// client version does not understand. Callers should drop the event and
// carry on; it is not a protocol failure.
type ErrUnknownEventType struct {
	Type EventType
}

func (e *ErrUnknownEventType) Error() string {
	return fmt.Sprintf("unknown event type: %q", e.Type)
}

// DecodeEvent parses a push frame into an Event.
// Returns *ErrUnknownEventType for forward-compatible tags the caller
// should ignore, or a wrapped error for genuinely malformed frames.
func DecodeEvent(frame []byte) (*Event, error) {
	var wire eventWire
	if err := json.Unmarshal(frame, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse event frame: %w", err)
	}

	event := &Event{Type: wire.Type}

	switch wire.Type {
	case EventNewQuestion, EventQuestionUpdated:
		var q Question
		if err := json.Unmarshal(wire.Data, &q); err != nil {
			return nil, fmt.Errorf("failed to parse question payload: %w", err)
		}
		event.Question = &q

	case EventNewAnswer, EventAnswerDeleted:
		var a Answer
		if err := json.Unmarshal(wire.Data, &a); err != nil {
			return nil, fmt.Errorf("failed to parse answer payload: %w", err)
		}
		event.Answer = &a

	default:
		return nil, &ErrUnknownEventType{Type: wire.Type}
	}

	return event, nil
}

// EncodeEvent serializes an Event into a push frame.
// Used by the service side; clients only decode.
func EncodeEvent(event *Event) ([]byte, error) {
	var data any
	switch event.Type {
	case EventNewQuestion, EventQuestionUpdated:
		if event.Question == nil {
			return nil, fmt.Errorf("event %s requires a question payload", event.Type)
		}
		data = event.Question
	case EventNewAnswer, EventAnswerDeleted:
		if event.Answer == nil {
			return nil, fmt.Errorf("event %s requires an answer payload", event.Type)
		}
		data = event.Answer
	default:
		return nil, fmt.Errorf("cannot encode unknown event type %q", event.Type)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	frame, err := json.Marshal(eventWire{Type: event.Type, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event frame: %w", err)
	}

	return frame, nil
}
