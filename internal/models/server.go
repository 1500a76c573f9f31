package models

// TrackedServer is a single configured monitoring target.
type TrackedServer struct {
	ID          string `json:"id"`          // provider-assigned id, used as cache key and API path segment
	DisplayName string `json:"displayName"` // human-readable name used in messages
	ChannelID   string `json:"channelId"`   // destination for this server's notifications

	// LastError holds the last failure message reported for this server.
	// It is in-memory only and resets on restart; the poller uses it to
	// suppress repeated identical failure notifications.
	LastError string `json:"-"`
}

// PlayerObservation is a player present in one snapshot's roster. The id is
// unique only within the server's current session and must not be treated as
// a durable identity.
type PlayerObservation struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Ping int    `json:"ping"`
}

// ServerSnapshot is one observed state of a server at a point in time.
type ServerSnapshot struct {
	Hostname   string              `json:"hostname"`
	MaxClients int                 `json:"maxClients"`
	Resources  []string            `json:"resources"`
	GameBuild  string              `json:"gameBuild"`
	Players    []PlayerObservation `json:"players"`
}
