// Package monitoring drives the repeating poll cycle over all tracked
// servers.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/serverwatch/fivewatch/internal/cache"
	"github.com/serverwatch/fivewatch/internal/diff"
	"github.com/serverwatch/fivewatch/internal/fivem"
	"github.com/serverwatch/fivewatch/internal/models"
	"github.com/serverwatch/fivewatch/internal/notify"
	"github.com/serverwatch/fivewatch/internal/playerindex"
	"github.com/serverwatch/fivewatch/internal/services"
)

// ErrUnknownServer is returned for ids outside the configured tracking set.
var ErrUnknownServer = errors.New("unknown server id")

// Provider is the command surface the poller exposes to API handlers and
// the chat transport.
type Provider interface {
	Servers() []*models.TrackedServer
	TriggerRound()
	FetchOrCached(serverID string) (*models.ServerSnapshot, error)
	LookupPlayer(name string) []models.PlayerRecord
}

// Poller fetches, diffs, persists and notifies for every tracked server,
// one server at a time.
type Poller struct {
	fetcher  *fivem.Client
	store    *cache.Store
	index    *playerindex.Index
	events   services.EventServiceProvider
	notifier notify.Notifier
	servers  []*models.TrackedServer
	dedup    Deduper

	roundInterval time.Duration
	serverDelay   time.Duration

	ticker *time.Ticker
	done   chan bool

	// roundMu serializes polling rounds. The background loop and on-demand
	// rounds share the cache and player index, so two rounds must never poll
	// the same server at the same time.
	roundMu sync.Mutex
}

// NewPoller creates a Poller over the given tracking set.
func NewPoller(
	fetcher *fivem.Client,
	store *cache.Store,
	index *playerindex.Index,
	events services.EventServiceProvider,
	notifier notify.Notifier,
	servers []*models.TrackedServer,
	roundInterval, serverDelay time.Duration,
) *Poller {
	return &Poller{
		fetcher:       fetcher,
		store:         store,
		index:         index,
		events:        events,
		notifier:      notifier,
		servers:       servers,
		roundInterval: roundInterval,
		serverDelay:   serverDelay,
		done:          make(chan bool),
	}
}

// Servers returns the configured tracking set.
func (p *Poller) Servers() []*models.TrackedServer {
	return p.servers
}

// Run starts the repeating polling loop. It blocks until Stop is called.
func (p *Poller) Run() {
	log.Info().Int("servers", len(p.servers)).Dur("interval", p.roundInterval).
		Msg("Starting background poller...")
	p.ticker = time.NewTicker(p.roundInterval)
	defer p.ticker.Stop()

	// Run once immediately on start
	p.runRound()

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping background poller.")
			return
		case <-p.ticker.C:
			p.runRound()
		}
	}
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	p.done <- true
}

// TriggerRound performs exactly one pass over all servers, independent of
// the background loop's timing.
func (p *Poller) TriggerRound() {
	p.runRound()
}

// LookupPlayer returns the player index records for an exact name.
func (p *Poller) LookupPlayer(name string) []models.PlayerRecord {
	return p.index.GetByName(name)
}

// FetchOrCached polls one server on demand and returns its latest known
// snapshot. When the live fetch fails the cached snapshot, if any, is
// returned instead.
func (p *Poller) FetchOrCached(serverID string) (*models.ServerSnapshot, error) {
	var server *models.TrackedServer
	for _, s := range p.servers {
		if s.ID == serverID {
			server = s
			break
		}
	}
	if server == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, serverID)
	}

	p.roundMu.Lock()
	p.pollServer(server)
	p.roundMu.Unlock()

	snap, err := p.store.Load(serverID)
	if err != nil {
		return nil, fmt.Errorf("no state available for %s: %w", serverID, err)
	}
	return snap, nil
}

// runRound polls every server once, in configuration order, with a fixed
// delay between servers to avoid bursting the remote API.
func (p *Poller) runRound() {
	p.roundMu.Lock()
	defer p.roundMu.Unlock()

	log.Info().Int("servers", len(p.servers)).Msg("Checking servers")
	for i, server := range p.servers {
		if i > 0 {
			time.Sleep(p.serverDelay)
		}
		p.pollServer(server)
	}
}

// pollServer runs the full cycle for one server: load baseline, fetch, diff,
// persist, notify, index. Any failure is scoped to this server and routed
// through the de-duplicator; it never aborts the rest of the round.
func (p *Poller) pollServer(server *models.TrackedServer) {
	logCtx := log.With().Str("server", server.DisplayName).Str("server_id", server.ID).Logger()
	logCtx.Debug().Msg("Checking server")

	baseline, err := p.store.Load(server.ID)
	first := false
	switch {
	case errors.Is(err, cache.ErrNotFound):
		first = true
	case err != nil:
		p.reportFailure(server, err)
		return
	}

	now := time.Now()
	snap, raw, err := p.fetcher.Fetch(context.Background(), server.ID)
	if err != nil {
		// A failed fetch must not overwrite good cached state.
		p.reportFailure(server, err)
		return
	}
	p.dedup.Report(server, "")

	report := diff.Compare(server.ID, baseline, snap)

	// Persist unconditionally on success so cache staleness is bounded by
	// the poll interval, not by whether anything changed.
	if err := p.store.Save(server.ID, raw); err != nil {
		p.reportFailure(server, err)
		return
	}

	if !report.Empty() {
		logCtx.Info().Str("categories", report.Summary()).Msg("Changes detected")
		if err := p.notifier.NotifyReport(server, report, now); err != nil {
			logCtx.Error().Err(err).Msg("Failed to send change report")
		}
		p.logEvent("server.change", "info", fmt.Sprintf("Changes on %q (%s): %s", server.DisplayName, server.ID, report.Summary()), server)
	}

	if first || !report.Empty() {
		p.index.UpdateAll(server.ID, now, snap.Players)
		if err := p.index.Save(); err != nil {
			logCtx.Error().Err(err).Msg("Failed to save player index")
		}
	}

	if err := p.notifier.UpdatePresence(server, snap); err != nil {
		logCtx.Warn().Err(err).Msg("Failed to update presence")
	}
}

// reportFailure formats a failure, de-duplicates it against the last one
// reported for this server, and emits it once.
func (p *Poller) reportFailure(server *models.TrackedServer, cause error) {
	message := fmt.Sprintf("Failed to request data for %q (%s): %v", server.DisplayName, server.ID, cause)
	if !p.dedup.Report(server, message) {
		log.Debug().Str("server_id", server.ID).Msg("Suppressing repeated failure")
		return
	}

	log.Error().Str("server_id", server.ID).Str("server", server.DisplayName).Err(cause).
		Msg("Poll failed")
	if err := p.notifier.Notify(server, "```\n"+message+"\n```"); err != nil {
		log.Error().Err(err).Str("server_id", server.ID).Msg("Failed to send failure alert")
	}
	p.logEvent("poll.fail", "error", message, server)
}

func (p *Poller) logEvent(eventType, level, message string, server *models.TrackedServer) {
	id := server.ID
	if err := p.events.CreateEvent(eventType, level, message, &id); err != nil {
		log.Error().Err(err).Msg("Failed to record event")
	}
}
