package models

import "time"

// Event is one row of the durable activity log: a detected change, a fetch
// failure, or a lifecycle message.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "server.change", "poll.fail"
	Level     string    `json:"level"` // "info", "warn" or "error"
	Message   string    `json:"message"`
	ServerID  *string   `json:"serverId,omitempty"` // nil for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
