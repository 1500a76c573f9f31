package monitoring

import "github.com/serverwatch/fivewatch/internal/models"

// Deduper suppresses consecutive identical failure messages per server so a
// sustained outage produces one alert, not one per poll. State lives in
// memory only; a restart re-alerts on the next failure, which is accepted.
type Deduper struct{}

// Report records a message for a server and reports whether it should be
// emitted. Only the last message is tracked: any change, including back to
// the empty success message, emits and replaces it.
func (Deduper) Report(server *models.TrackedServer, message string) bool {
	if server.LastError == message {
		return false
	}
	server.LastError = message
	return true
}
