package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettwatson77/autoPLEX/internal/models"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	led, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { led.Close() })
	return led
}

func TestRecordIsWriteAhead(t *testing.T) {
	led := openTestLedger(t)

	ch := models.FieldChange{ServerID: "101", Field: models.FieldTitle, OldValue: "One more time", NewValue: "One More Time"}
	require.NoError(t, led.Record(&ch))

	assert.NotZero(t, ch.ID)
	assert.Equal(t, models.StatusPending, ch.Status)
	assert.False(t, ch.Timestamp.IsZero())

	// Durable before any apply: visible to a fresh query as pending.
	history, err := led.Query("101")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPending, history[0].Status)
}

func TestAppliedAndFailedAreTerminal(t *testing.T) {
	led := openTestLedger(t)

	ch := models.FieldChange{ServerID: "101", Field: models.FieldArtist, OldValue: "Daft Punk ", NewValue: "Daft Punk"}
	require.NoError(t, led.Record(&ch))
	require.NoError(t, led.MarkApplied(ch.ID))

	// A later attempt to rewrite history must be refused.
	assert.Error(t, led.MarkFailed(ch.ID, "late failure"))
	assert.Error(t, led.MarkSkipped(ch.ID))

	history, err := led.Query("101")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusApplied, history[0].Status)

	failed := models.FieldChange{ServerID: "102", Field: models.FieldTitle, NewValue: "x"}
	require.NoError(t, led.Record(&failed))
	require.NoError(t, led.MarkFailed(failed.ID, "server timeout"))
	assert.Error(t, led.MarkApplied(failed.ID))

	history, err = led.Query("102")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusFailed, history[0].Status)
	assert.Equal(t, "server timeout", history[0].Error)
}

func TestQueryReturnsHistoryNewestLast(t *testing.T) {
	led := openTestLedger(t)

	first := models.FieldChange{ServerID: "101", Field: models.FieldTitle, NewValue: "v1"}
	require.NoError(t, led.Record(&first))
	require.NoError(t, led.MarkApplied(first.ID))

	second := models.FieldChange{ServerID: "101", Field: models.FieldTitle, NewValue: "v2"}
	require.NoError(t, led.Record(&second))

	history, err := led.Query("101")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "v1", history[0].NewValue)
	assert.Equal(t, "v2", history[1].NewValue)
}

func TestResumeStateTracksLatestAppliedValue(t *testing.T) {
	led := openTestLedger(t)

	old := models.FieldChange{ServerID: "101", Field: models.FieldTitle, NewValue: "old title"}
	require.NoError(t, led.Record(&old))
	require.NoError(t, led.MarkApplied(old.ID))

	newer := models.FieldChange{ServerID: "101", Field: models.FieldTitle, NewValue: "new title"}
	require.NoError(t, led.Record(&newer))
	require.NoError(t, led.MarkApplied(newer.ID))

	pending := models.FieldChange{ServerID: "101", Field: models.FieldArtist, NewValue: "never applied"}
	require.NoError(t, led.Record(&pending))

	skipped := models.FieldChange{ServerID: "102", Field: models.FieldAlbum, NewValue: "declined"}
	require.NoError(t, led.Record(&skipped))
	require.NoError(t, led.MarkSkipped(skipped.ID))

	state, err := led.ResumeState()
	require.NoError(t, err)

	assert.Equal(t, "new title", state[models.AppliedKey{ServerID: "101", Field: models.FieldTitle}])
	assert.NotContains(t, state, models.AppliedKey{ServerID: "101", Field: models.FieldArtist})
	assert.NotContains(t, state, models.AppliedKey{ServerID: "102", Field: models.FieldAlbum})
}

func TestResumeStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	led, err := Open(path)
	require.NoError(t, err)
	ch := models.FieldChange{ServerID: "101", Field: models.FieldTitle, NewValue: "durable"}
	require.NoError(t, led.Record(&ch))
	require.NoError(t, led.MarkApplied(ch.ID))
	require.NoError(t, led.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.ResumeState()
	require.NoError(t, err)
	assert.Equal(t, "durable", state[models.AppliedKey{ServerID: "101", Field: models.FieldTitle}])
}

func TestStats(t *testing.T) {
	led := openTestLedger(t)

	for _, spec := range []struct {
		id    string
		field string
		mark  string
	}{
		{"101", models.FieldTitle, "applied"},
		{"101", models.FieldArtist, "applied"},
		{"102", models.FieldTitle, "failed"},
		{"103", models.FieldAlbum, "skipped"},
	} {
		ch := models.FieldChange{ServerID: spec.id, Field: spec.field, NewValue: "v"}
		require.NoError(t, led.Record(&ch))
		switch spec.mark {
		case "applied":
			require.NoError(t, led.MarkApplied(ch.ID))
		case "failed":
			require.NoError(t, led.MarkFailed(ch.ID, "boom"))
		case "skipped":
			require.NoError(t, led.MarkSkipped(ch.ID))
		}
	}

	stats, err := led.Stats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalChanges)
	assert.Equal(t, 3, stats.TracksChanged)
	assert.Equal(t, 2, stats.ByField[models.FieldTitle])
	assert.Equal(t, 2, stats.ByStatus["applied"])
	assert.Equal(t, 1, stats.ByStatus["failed"])
	assert.Equal(t, 1, stats.ByStatus["skipped"])
}
