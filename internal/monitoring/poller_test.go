package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serverwatch/fivewatch/internal/cache"
	"github.com/serverwatch/fivewatch/internal/fivem"
	"github.com/serverwatch/fivewatch/internal/models"
	"github.com/serverwatch/fivewatch/internal/playerindex"
)

type fakeNotifier struct {
	mu       sync.Mutex
	texts    []string
	reports  []models.ChangeReport
	statuses []*models.ServerSnapshot
}

func (f *fakeNotifier) Notify(_ *models.TrackedServer, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeNotifier) NotifyReport(_ *models.TrackedServer, report models.ChangeReport, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeNotifier) UpdatePresence(_ *models.TrackedServer, snap *models.ServerSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, snap)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeEvents) CreateEvent(eventType, level, message string, serverID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, models.Event{Type: eventType, Level: level, Message: message, ServerID: serverID})
	return nil
}

func (f *fakeEvents) GetRecentEvents(int) ([]models.Event, error) { return nil, nil }

func (f *fakeEvents) PruneEventsBefore(time.Time) (int64, error) { return 0, nil }

// statusBody builds a status document the way the remote API shapes it.
func statusBody(resources []string, build string, players []models.PlayerObservation) []byte {
	type doc struct {
		Data map[string]interface{} `json:"Data"`
	}
	raw, _ := json.Marshal(doc{Data: map[string]interface{}{
		"hostname":      "Test Server",
		"sv_maxclients": 32,
		"resources":     resources,
		"vars":          map[string]string{"sv_enforceGameBuild": build},
		"players":       players,
	}})
	return raw
}

type testRig struct {
	poller   *Poller
	notifier *fakeNotifier
	events   *fakeEvents
	store    *cache.Store
	index    *playerindex.Index
	server   *models.TrackedServer
}

func newTestRig(t *testing.T, handler http.HandlerFunc) *testRig {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	store := cache.NewStore(filepath.Join(dir, "cache"))
	index, err := playerindex.Open(filepath.Join(dir, "players.json"))
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	events := &fakeEvents{}
	server := &models.TrackedServer{ID: "abc123", DisplayName: "erp", ChannelID: "chan"}

	poller := NewPoller(
		fivem.NewClient(ts.URL+"/", 2*time.Second),
		store, index, events, notifier,
		[]*models.TrackedServer{server},
		time.Minute, 0,
	)
	return &testRig{poller: poller, notifier: notifier, events: events, store: store, index: index, server: server}
}

func TestFirstPollPersistsWithoutNotifying(t *testing.T) {
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(statusBody([]string{"a", "b"}, "v1", nil))
	})

	rig.poller.TriggerRound()

	snap, err := rig.store.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, snap.Resources)

	assert.Empty(t, rig.notifier.reports, "first poll must not emit change notifications")
	assert.Empty(t, rig.notifier.texts)
	assert.Equal(t, 0, rig.index.Len(), "empty roster adds nothing to the index")
}

func TestResourceChangeNotifies(t *testing.T) {
	responses := [][]byte{
		statusBody([]string{"a", "b"}, "v1", nil),
		statusBody([]string{"b", "c"}, "v1", nil),
	}
	var call int
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(responses[call])
		if call < len(responses)-1 {
			call++
		}
	})

	rig.poller.TriggerRound()
	rig.poller.TriggerRound()

	require.Len(t, rig.notifier.reports, 1)
	report := rig.notifier.reports[0]
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "Resources", report.Changes[0].Name)
	assert.Equal(t, "```diff\n- a\n+ c\n```", report.Changes[0].Body)

	// The change was recorded with a category summary.
	require.Len(t, rig.events.events, 1)
	assert.Equal(t, "server.change", rig.events.events[0].Type)
	assert.Contains(t, rig.events.events[0].Message, "resources")

	// New snapshot persisted.
	snap, err := rig.store.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, snap.Resources)
}

func TestUnchangedSnapshotStillPersisted(t *testing.T) {
	var calls int
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write(statusBody([]string{"a"}, "v1", nil))
	})

	rig.poller.TriggerRound()
	rig.poller.TriggerRound()

	assert.Equal(t, 2, calls)
	assert.Empty(t, rig.notifier.reports)
	_, err := rig.store.Load("abc123")
	assert.NoError(t, err)
}

func TestRepeatedFailureIsSuppressed(t *testing.T) {
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rig.poller.TriggerRound()
	rig.poller.TriggerRound()

	require.Len(t, rig.notifier.texts, 1, "second identical failure must be suppressed")
	assert.Contains(t, rig.notifier.texts[0], `Failed to request data for "erp" (abc123): HTTP ERROR 500`)

	_, err := rig.store.Load("abc123")
	assert.ErrorIs(t, err, cache.ErrNotFound, "failed fetches must not touch the snapshot store")
}

func TestFailureAfterRecoveryNotifiesAgain(t *testing.T) {
	var fail bool
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(statusBody([]string{"a"}, "v1", nil))
	})

	fail = true
	rig.poller.TriggerRound()
	fail = false
	rig.poller.TriggerRound()
	fail = true
	rig.poller.TriggerRound()

	assert.Len(t, rig.notifier.texts, 2, "a success in between clears the suppression")
}

func TestFailedFetchKeepsCachedState(t *testing.T) {
	var fail bool
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(statusBody([]string{"a", "b"}, "v1", nil))
	})

	rig.poller.TriggerRound()
	fail = true
	rig.poller.TriggerRound()

	snap, err := rig.store.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, snap.Resources, "good cached state survives a failed fetch")
}

func TestRosterChangeUpdatesIndex(t *testing.T) {
	bob := models.PlayerObservation{ID: 1, Name: "Bob", Ping: 20}
	ann := models.PlayerObservation{ID: 2, Name: "Ann", Ping: 35}
	responses := [][]byte{
		statusBody([]string{"a"}, "v1", []models.PlayerObservation{bob}),
		statusBody([]string{"a"}, "v1", []models.PlayerObservation{bob, ann}),
	}
	var call int
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(responses[call])
		if call < len(responses)-1 {
			call++
		}
	})

	rig.poller.TriggerRound()
	require.Equal(t, 1, rig.index.Len(), "first poll indexes the roster")

	rig.poller.TriggerRound()

	require.Len(t, rig.notifier.reports, 1)
	report := rig.notifier.reports[0]
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "Players", report.Changes[0].Name)
	assert.Equal(t, "```diff\n+ #2 \"Ann\" (35ms)\n```", report.Changes[0].Body)

	assert.Equal(t, 2, rig.index.Len())
	require.Len(t, rig.poller.LookupPlayer("Ann"), 1)
	require.Len(t, rig.poller.LookupPlayer("Bob"), 1)
}

func TestFetchOrCached(t *testing.T) {
	var fail bool
	rig := newTestRig(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(statusBody([]string{"a"}, "v1", nil))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := rig.poller.FetchOrCached("nope")
		assert.ErrorIs(t, err, ErrUnknownServer)
	})

	t.Run("live fetch", func(t *testing.T) {
		snap, err := rig.poller.FetchOrCached("abc123")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, snap.Resources)
	})

	t.Run("falls back to cache on failure", func(t *testing.T) {
		fail = true
		snap, err := rig.poller.FetchOrCached("abc123")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, snap.Resources)
	})
}
