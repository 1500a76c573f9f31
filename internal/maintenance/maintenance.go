// Package maintenance keeps the durable stores from growing without bound.
package maintenance

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/serverwatch/fivewatch/internal/services"
)

// Janitor prunes old activity-log rows on a daily schedule.
type Janitor struct {
	cron      *cron.Cron
	events    services.EventServiceProvider
	retention time.Duration
}

// NewJanitor creates a Janitor that deletes events older than retention.
func NewJanitor(events services.EventServiceProvider, retention time.Duration) *Janitor {
	return &Janitor{
		cron:      cron.New(),
		events:    events,
		retention: retention,
	}
}

// Start schedules the daily prune and runs one immediately.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@daily", j.prune); err != nil {
		return err
	}
	j.cron.Start()
	go j.prune()
	return nil
}

// Stop halts the schedule. Already-running jobs finish.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

func (j *Janitor) prune() {
	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.events.PruneEventsBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune events")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Pruned old events")
	}
}
