package audit

import "time"

// EventType represents the category of audit event.
type EventType string

const (
	EventTypeAuthSuccess    EventType = "auth.success"
	EventTypeAuthFailure    EventType = "auth.failure"
	EventTypeAuthSponsor    EventType = "auth.sponsor"
	EventTypeTokenCreate    EventType = "auth.token_create"
	EventTypeTokenRevoke    EventType = "auth.token_revoke"
)

// Event is a single audit entry. Successful authentications carry the
// authentication method and the caller's network address.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  EventType `json:"event_type"`
	UserID     string    `json:"user_id,omitempty"`
	Method     string    `json:"method,omitempty"`
	CallerAddr string    `json:"caller_addr,omitempty"`

	// SponsoreeID is set on impersonation events: the identity the
	// authenticated sponsor obtained a context for.
	SponsoreeID string `json:"sponsoree_id,omitempty"`

	Message string `json:"message,omitempty"`
}
