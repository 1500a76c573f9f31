// Package notify carries poll results to the outside world: a Discord
// channel, connected dashboard clients, or both.
package notify

import (
	"errors"
	"time"

	"github.com/serverwatch/fivewatch/internal/models"
)

// MaxMessageLen is the hard cap the chat transport puts on plain messages.
const MaxMessageLen = 2000

// Notifier delivers poll results for one tracked server.
type Notifier interface {
	// Notify sends a plain text alert, e.g. a fetch failure.
	Notify(server *models.TrackedServer, text string) error

	// NotifyReport sends a rendered change report.
	NotifyReport(server *models.TrackedServer, report models.ChangeReport, at time.Time) error

	// UpdatePresence reflects the latest successful snapshot on the
	// destination, e.g. as a channel topic.
	UpdatePresence(server *models.TrackedServer, snap *models.ServerSnapshot) error
}

// Engine is the command surface the chat transport exposes to operators.
type Engine interface {
	TriggerRound()
	FetchOrCached(serverID string) (*models.ServerSnapshot, error)
	LookupPlayer(name string) []models.PlayerRecord
	Servers() []*models.TrackedServer
}

// Truncate clamps a message to the transport's maximum length.
func Truncate(text string) string {
	if len(text) <= MaxMessageLen {
		return text
	}
	return text[:MaxMessageLen]
}

// Multi fans every notification out to several notifiers. Errors are
// collected, not short-circuited, so one failing transport cannot hide a
// change from the others.
type Multi []Notifier

func (m Multi) Notify(server *models.TrackedServer, text string) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.Notify(server, text))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyReport(server *models.TrackedServer, report models.ChangeReport, at time.Time) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyReport(server, report, at))
	}
	return errors.Join(errs...)
}

func (m Multi) UpdatePresence(server *models.TrackedServer, snap *models.ServerSnapshot) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.UpdatePresence(server, snap))
	}
	return errors.Join(errs...)
}
