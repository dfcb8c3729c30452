package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettwatson77/autoPLEX/internal/models"
)

func refTrack(key, artist, title string) models.TrackRecord {
	return models.TrackRecord{FileKey: key, Artist: artist, Title: title, Source: models.SourceReference}
}

func srvTrack(key, id string) models.TrackRecord {
	return models.TrackRecord{FileKey: key, ServerID: id, Source: models.SourceServer}
}

func TestMatchPairsByFileKey(t *testing.T) {
	reference := map[string]models.TrackRecord{
		"m:/daft punk/discovery/one more time.flac": refTrack("m:/daft punk/discovery/one more time.flac", "Daft Punk", "One More Time"),
		"m:/air/moon safari/la femme.flac":          refTrack("m:/air/moon safari/la femme.flac", "Air", "La Femme d'Argent"),
		"m:/ref only/track.flac":                    refTrack("m:/ref only/track.flac", "Ghost", "Unsynced"),
	}
	server := []models.TrackRecord{
		srvTrack("m:/daft punk/discovery/one more time.flac", "101"),
		srvTrack("m:/air/moon safari/la femme.flac", "102"),
		srvTrack("m:/server only/orphan.flac", "103"),
	}

	res := Match(reference, server)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, "101", res.Pairs[1].Server.ServerID)
	assert.Equal(t, "Daft Punk", res.Pairs[1].Reference.Artist)

	require.Len(t, res.ReferenceOnly, 1)
	assert.Equal(t, "m:/ref only/track.flac", res.ReferenceOnly[0].FileKey)

	require.Len(t, res.ServerOnly, 1)
	assert.Equal(t, "103", res.ServerOnly[0].ServerID)

	assert.Empty(t, res.Ambiguous)
}

func TestMatchDuplicateServerKeysAreAmbiguous(t *testing.T) {
	key := "m:/daft punk/discovery/aerodynamic.flac"
	reference := map[string]models.TrackRecord{
		key: refTrack(key, "Daft Punk", "Aerodynamic"),
	}
	server := []models.TrackRecord{
		srvTrack(key, "201"),
		srvTrack(key, "202"),
	}

	res := Match(reference, server)

	// Never an arbitrary pick: no pair, no server-only entry, one
	// ambiguous group carrying both duplicates.
	assert.Empty(t, res.Pairs)
	assert.Empty(t, res.ServerOnly)
	require.Len(t, res.Ambiguous, 1)
	assert.Len(t, res.Ambiguous[key], 2)

	// The reference record stays unmatched.
	require.Len(t, res.ReferenceOnly, 0) // key exists on server, just ambiguous
}

func TestMatchNeverPairsSameServerKeyTwice(t *testing.T) {
	reference := map[string]models.TrackRecord{
		"a": refTrack("a", "X", "1"),
		"b": refTrack("b", "X", "2"),
	}
	server := []models.TrackRecord{
		srvTrack("a", "1"), srvTrack("b", "2"), srvTrack("b", "3"),
	}

	res := Match(reference, server)

	seen := map[string]bool{}
	for _, p := range res.Pairs {
		assert.False(t, seen[p.Server.FileKey], "server file key paired twice")
		seen[p.Server.FileKey] = true
	}
	require.Len(t, res.Pairs, 1)
	assert.Contains(t, res.Ambiguous, "b")
}

func TestSuggest(t *testing.T) {
	reference := map[string]models.TrackRecord{
		"m:/daft punk/discovery/one more time.flac": {},
		"m:/air/moon safari/la femme.flac":          {},
	}

	hint, score := Suggest("m:/daft punk/discovery/one more time (remaster).flac", reference)
	assert.Equal(t, "m:/daft punk/discovery/one more time.flac", hint)
	assert.Greater(t, score, 0.85)

	hint, _ = Suggest("z:/completely/unrelated/path.mp3", reference)
	assert.Empty(t, hint)
}
