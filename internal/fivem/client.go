// Package fivem talks to the FiveM servers-frontend status API.
package fivem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/serverwatch/fivewatch/internal/models"
)

// StatusError is returned when the remote API answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP ERROR %d", e.Code)
}

// TransportError is returned when the request itself fails (network error,
// timeout) or the response body cannot be parsed into the status schema.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// statusDocument is the subset of the API response the monitor cares about.
type statusDocument struct {
	Data struct {
		Hostname     string   `json:"hostname"`
		SvMaxclients int      `json:"sv_maxclients"`
		Resources    []string `json:"resources"`
		Vars         struct {
			EnforceGameBuild string `json:"sv_enforceGameBuild"`
		} `json:"vars"`
		Players []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
			Ping int    `json:"ping"`
		} `json:"players"`
	} `json:"Data"`
}

// ParseSnapshot parses a raw status document into a snapshot. The same
// parser is used for live responses and for cached documents read back from
// disk, so schema drift hits both paths identically.
func ParseSnapshot(raw []byte) (*models.ServerSnapshot, error) {
	var doc statusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing status document: %w", err)
	}

	snap := &models.ServerSnapshot{
		Hostname:   doc.Data.Hostname,
		MaxClients: doc.Data.SvMaxclients,
		Resources:  doc.Data.Resources,
		GameBuild:  doc.Data.Vars.EnforceGameBuild,
	}
	for _, p := range doc.Data.Players {
		snap.Players = append(snap.Players, models.PlayerObservation{
			ID:   p.ID,
			Name: p.Name,
			Ping: p.Ping,
		})
	}
	return snap, nil
}

// Client fetches per-server status documents.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client for the given API base URL. The timeout bounds
// the whole request; there are no retries here, the next poll cycle is the
// retry.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET for one server id and returns the parsed
// snapshot together with the raw response body. The raw body is what gets
// cached, so the on-disk record survives schema evolution in the API.
func (c *Client) Fetch(ctx context.Context, serverID string) (*models.ServerSnapshot, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+serverID, nil)
	if err != nil {
		return nil, nil, &TransportError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &StatusError{Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &TransportError{Err: err}
	}

	snap, err := ParseSnapshot(raw)
	if err != nil {
		return nil, nil, &TransportError{Err: err}
	}
	return snap, raw, nil
}
