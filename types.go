package vessel

import (
	"encoding/json"
	"time"
)

// Proof carries a signature over a canonical statement encoding.
type Proof struct {
	Type      string `json:"type"`
	Signature string `json:"signature"` // hex, 65 bytes recoverable secp256k1
}

// SignedStatement is the wire envelope for an attested action.
// Payload is the canonical JSON of one of the statement kinds.
type SignedStatement struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Proof   Proof           `json:"proof"`
}

// WellKnownVessel describes a node to its peers.
type WellKnownVessel struct {
	Version     string            `json:"version"`
	Address     string            `json:"address"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Endpoints   map[string]string `json:"endpoints"`
}

// Event is pushed over the realtime socket when a comment or
// publication changes state.
type Event struct {
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
	Body      any       `json:"body,omitempty"`
}

const (
	EventPublicationCreated = "publication.created"
	EventCommentConfirmed   = "comment.confirmed"
	EventCommentDeleted     = "comment.deleted"
)
