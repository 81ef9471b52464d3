package types

// Event represents a typed event emitted during state transitions. Attributes
// carry the relevant ids, accounts and amounts as decimal/hex strings so the
// payload stays stable across storage codec changes.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
