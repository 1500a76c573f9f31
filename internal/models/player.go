package models

import "time"

// Sighting records the most recent time a player name was seen on one server.
type Sighting struct {
	ServerID string    `json:"serverId"`
	LastSeen time.Time `json:"lastSeen"`
	Ping     int       `json:"ping"`
}

// PlayerRecord is the accumulated history for one player name across all
// tracked servers. Names are case-sensitive keys; two spellings are two
// records.
type PlayerRecord struct {
	Name      string              `json:"name"`
	Sightings map[string]Sighting `json:"sightings"` // keyed by server id
}
