// Package matcher pairs server catalog records with reference records by
// exact file-key identity. Titles and artists are exactly the fields being
// overwritten, so they are never trusted as a join key; there is no fuzzy
// pairing here.
package matcher

import (
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/brettwatson77/autoPLEX/internal/models"
)

// Result is the three-way (plus ambiguity) outcome of a match run.
type Result struct {
	Pairs []models.MatchedPair
	// ReferenceOnly: present in the reference, absent from the server.
	// Informational, never acted on.
	ReferenceOnly []models.TrackRecord
	// ServerOnly: present on the server, absent from the reference. Flags
	// orphaned server entries.
	ServerOnly []models.TrackRecord
	// Ambiguous: the same file key catalogued more than once on the
	// server. Excluded from patching, surfaced for manual resolution.
	Ambiguous map[string][]models.TrackRecord
}

// Match joins the two record sets on normalized file key.
func Match(reference map[string]models.TrackRecord, server []models.TrackRecord) Result {
	res := Result{Ambiguous: make(map[string][]models.TrackRecord)}

	byKey := make(map[string][]models.TrackRecord, len(server))
	for _, rec := range server {
		byKey[rec.FileKey] = append(byKey[rec.FileKey], rec)
	}

	for key, recs := range byKey {
		if len(recs) > 1 {
			// Never pick arbitrarily between duplicates.
			res.Ambiguous[key] = recs
			continue
		}
		if ref, ok := reference[key]; ok {
			res.Pairs = append(res.Pairs, models.MatchedPair{Reference: ref, Server: recs[0]})
		} else {
			res.ServerOnly = append(res.ServerOnly, recs[0])
		}
	}

	for key, ref := range reference {
		if _, ok := byKey[key]; !ok {
			res.ReferenceOnly = append(res.ReferenceOnly, ref)
		}
	}

	sort.Slice(res.Pairs, func(i, j int) bool {
		return res.Pairs[i].Reference.FileKey < res.Pairs[j].Reference.FileKey
	})
	sort.Slice(res.ReferenceOnly, func(i, j int) bool {
		return res.ReferenceOnly[i].FileKey < res.ReferenceOnly[j].FileKey
	})
	sort.Slice(res.ServerOnly, func(i, j int) bool {
		return res.ServerOnly[i].FileKey < res.ServerOnly[j].FileKey
	})
	return res
}

// Suggest returns the nearest reference file key for an orphaned server
// key by Jaro-Winkler similarity, for the unmatched report only. It never
// feeds back into pairing.
func Suggest(serverKey string, reference map[string]models.TrackRecord) (string, float64) {
	jw := metrics.NewJaroWinkler()

	var bestKey string
	var bestScore float64
	for key := range reference {
		score := strutil.Similarity(serverKey, key, jw)
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}
	if bestScore < 0.85 {
		return "", 0
	}
	return bestKey, bestScore
}
