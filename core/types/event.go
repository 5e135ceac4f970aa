package types

// Event is the generic envelope engines emit as state transitions land.
// Attributes carry the event's fields rendered to strings, keyed by name.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
