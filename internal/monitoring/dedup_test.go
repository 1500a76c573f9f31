package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serverwatch/fivewatch/internal/models"
)

func TestDeduperTracksOnlyLastMessage(t *testing.T) {
	var dedup Deduper
	server := &models.TrackedServer{ID: "abc123", DisplayName: "erp"}

	assert.True(t, dedup.Report(server, "X"), "first report emits")
	assert.False(t, dedup.Report(server, "X"), "identical repeat is suppressed")
	assert.True(t, dedup.Report(server, "Y"), "changed message emits")
	assert.True(t, dedup.Report(server, "X"), "old message emits again, only the last is tracked")
}

func TestDeduperClearsOnSuccess(t *testing.T) {
	var dedup Deduper
	server := &models.TrackedServer{ID: "abc123"}

	assert.True(t, dedup.Report(server, "X"))
	assert.True(t, dedup.Report(server, ""), "transition back to success updates state")
	assert.Empty(t, server.LastError)
	assert.True(t, dedup.Report(server, "X"), "same failure after a success emits again")
}

func TestDeduperIsPerServer(t *testing.T) {
	var dedup Deduper
	a := &models.TrackedServer{ID: "a"}
	b := &models.TrackedServer{ID: "b"}

	assert.True(t, dedup.Report(a, "X"))
	assert.True(t, dedup.Report(b, "X"), "servers do not share state")
}
