package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/serverwatch/fivewatch/internal/models"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))

	long := strings.Repeat("x", MaxMessageLen+50)
	got := Truncate(long)
	assert.Len(t, got, MaxMessageLen)
	assert.True(t, strings.HasPrefix(long, got))
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Notify(*models.TrackedServer, string) error { s.calls++; return s.err }

func (s *stubNotifier) NotifyReport(*models.TrackedServer, models.ChangeReport, time.Time) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) UpdatePresence(*models.TrackedServer, *models.ServerSnapshot) error {
	s.calls++
	return s.err
}

func TestMultiReachesEveryNotifier(t *testing.T) {
	broken := &stubNotifier{err: errors.New("transport down")}
	healthy := &stubNotifier{}
	multi := Multi{broken, healthy}
	server := &models.TrackedServer{ID: "abc123"}

	err := multi.Notify(server, "hello")
	assert.Error(t, err)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, healthy.calls, "a failing transport must not block the others")

	assert.NoError(t, Multi{healthy}.NotifyReport(server, models.ChangeReport{}, time.Now()))
	assert.NoError(t, Multi{healthy}.UpdatePresence(server, &models.ServerSnapshot{}))
	assert.Equal(t, 3, healthy.calls)
}
