package models

import "strings"

// Change is one category of detected difference, with a rendered text block
// ready for display.
type Change struct {
	Name   string `json:"name"` // "Resources", "Game Version" or "Players"
	Body   string `json:"body"` // fenced diff block
	Inline bool   `json:"inline"`
}

// ChangeReport is the ordered result of comparing two snapshots. An empty
// report means nothing worth notifying happened.
type ChangeReport struct {
	ServerID string   `json:"serverId"`
	Hostname string   `json:"hostname"` // sanitized, for the message footer
	Changes  []Change `json:"changes"`
}

// Empty reports whether no change category fired.
func (r ChangeReport) Empty() bool {
	return len(r.Changes) == 0
}

// Summary returns a short line naming the categories that changed, e.g.
// "resources, players".
func (r ChangeReport) Summary() string {
	names := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		names = append(names, strings.ToLower(c.Name))
	}
	return strings.Join(names, ", ")
}
