package agent

import "time"

// State is one stage of the invocation lifecycle.
type State string

const (
	StatePerceiving State = "perceiving"
	StateThinking   State = "thinking"
	StateResponding State = "responding"
	StateFailed     State = "failed"
	StateDone       State = "done"
)

type StreamFlag string

const (
	StreamActive   StreamFlag = "active"
	StreamInactive StreamFlag = "inactive"
)

// Event is one entry in the ordered sequence an invocation emits to its
// consumer. Token and Error stay null on the wire when absent. Exactly one
// terminal event is emitted per invocation: done, or the sequence ending
// after failed.
type Event struct {
	State     State      `json:"curr_state"`
	Stream    StreamFlag `json:"stream"`
	Token     *string    `json:"token"`
	Error     *string    `json:"error"`
	Timestamp time.Time  `json:"timestamp"`
}

// EmitFunc delivers one event to the consumer. The invocation blocks until
// the event is accepted, so a slow consumer throttles backend consumption;
// an error tells the invocation the consumer is gone and it must stop
// promptly.
type EmitFunc func(Event) error

func stateEvent(state State) Event {
	return Event{
		State:     state,
		Stream:    StreamInactive,
		Timestamp: time.Now(),
	}
}

func tokenEvent(state State, token string) Event {
	return Event{
		State:     state,
		Stream:    StreamActive,
		Token:     &token,
		Timestamp: time.Now(),
	}
}

func failedEvent(err error) Event {
	msg := err.Error()
	return Event{
		State:     StateFailed,
		Stream:    StreamInactive,
		Error:     &msg,
		Timestamp: time.Now(),
	}
}
