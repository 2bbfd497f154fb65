package domain

import "time"

// AuditEntry records who did what to which resource.
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	IP         string    `json:"ip"`
	RequestID  string    `json:"requestId,omitempty"`
	At         time.Time `json:"at"`
}
