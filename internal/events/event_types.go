package events

import (
	"time"

	"github.com/kheyma/kheyma-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered    EventType = "user_registered"
	EventLoginSucceeded    EventType = "login_succeeded"
	EventLoginFailed       EventType = "login_failed"
	EventUserStatusChanged EventType = "user_status_changed"
	EventUserRoleChanged   EventType = "user_role_changed"
	EventUserUpdated       EventType = "user_updated"
	EventUserDeleted       EventType = "user_deleted"
)

// Event represents a domain event emitted by services. Subject is the
// login id of the account the event is about.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// UserStatusChangedPayload payload.
type UserStatusChangedPayload struct {
	Enabled bool   `json:"enabled"`
	ActorID string `json:"actor_id"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	Role    domain.Role `json:"role"`
	ActorID string      `json:"actor_id"`
}

// UserAdminPayload names the admin behind an account update or deletion.
type UserAdminPayload struct {
	ActorID string `json:"actor_id"`
}
