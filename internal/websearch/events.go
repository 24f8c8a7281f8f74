package websearch

// EventKind labels a progress event emitted while answering a query.
type EventKind string

const (
	// EventStatus is a human-readable progress update.
	EventStatus EventKind = "status"
	// EventToken is one incremental fragment of the model's answer.
	EventToken EventKind = "token"
	// EventDone closes a successful stream. Terminal.
	EventDone EventKind = "done"
	// EventError closes a failed stream. Terminal.
	EventError EventKind = "error"
)

// Event is a single message on an answer stream. Exactly one terminal event
// (done or error) ends every stream.
type Event struct {
	Kind EventKind

	// Status carries the message for EventStatus.
	Status string

	// Token carries the fragment for EventToken.
	Token string

	// UsedWebSearch is set on EventDone.
	UsedWebSearch bool

	// Err carries the normalized message for EventError.
	Err string
}

// EmitFunc receives stream events in order. Returning an error aborts the
// stream; the engine stops producing and cleans up.
type EmitFunc func(Event) error
