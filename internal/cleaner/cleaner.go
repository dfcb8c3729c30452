// Package cleaner is the reconciliation engine: it diffs matched pairs,
// records every proposed change in the ledger ahead of the server call,
// applies confirmed batches and tallies the outcome.
package cleaner

import (
	"context"
	"log"
	"sort"

	"github.com/brettwatson77/autoPLEX/internal/models"
)

// ServerUpdater is the mutating side of the server catalog client.
type ServerUpdater interface {
	UpdateTrackField(ctx context.Context, sectionID, ratingKey, field, value string) error
}

// Recorder is the change ledger surface the engine needs.
type Recorder interface {
	Record(*models.FieldChange) error
	MarkApplied(id int64) error
	MarkFailed(id int64, errMsg string) error
	MarkSkipped(id int64) error
	ResumeState() (map[models.AppliedKey]string, error)
}

// Decision is the operator's answer to a proposed batch.
type Decision int

const (
	Apply Decision = iota
	Skip
	Exit
)

// Decider reviews one artist's batch of proposed changes. The interactive
// CLI backs this with a prompt; batch mode uses AlwaysApply.
type Decider func(artist string, batch []models.FieldChange) Decision

// AlwaysApply confirms every batch, for non-interactive runs.
func AlwaysApply(string, []models.FieldChange) Decision { return Apply }

// Cleaner drives reconciliation for one library section.
type Cleaner struct {
	updater   ServerUpdater
	ledger    Recorder
	sectionID string
}

func New(updater ServerUpdater, ledger Recorder, sectionID string) *Cleaner {
	return &Cleaner{updater: updater, ledger: ledger, sectionID: sectionID}
}

// BuildChanges computes the minimal field changes that make the server
// record equal the reference. Comparison is byte-for-byte: no trimming,
// casing or normalization. The policy is a literal copy.
func BuildChanges(pair models.MatchedPair) []models.FieldChange {
	ref, srv := pair.Reference, pair.Server

	var changes []models.FieldChange
	add := func(field, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, models.FieldChange{
			ServerID: srv.ServerID,
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}
	add(models.FieldTitle, srv.Title, ref.Title)
	add(models.FieldArtist, srv.Artist, ref.Artist)
	add(models.FieldAlbum, srv.Album, ref.Album)
	return changes
}

// filterResumed drops changes whose target value was already applied in an
// earlier run. Only an exact new-value match counts: if the reference
// moved since, the field is re-queued (idempotent replay).
func filterResumed(changes []models.FieldChange, resumed map[models.AppliedKey]string) []models.FieldChange {
	if len(resumed) == 0 {
		return changes
	}
	kept := changes[:0]
	for _, ch := range changes {
		if applied, ok := resumed[models.AppliedKey{ServerID: ch.ServerID, Field: ch.Field}]; ok && applied == ch.NewValue {
			continue
		}
		kept = append(kept, ch)
	}
	return kept
}

// CleanArtist reconciles one artist's matched pairs as a single confirmed
// batch. The pairs are expected to already be filtered to the artist.
func (c *Cleaner) CleanArtist(ctx context.Context, artist string, pairs []models.MatchedPair, decide Decider) (models.RunSummary, error) {
	summary := models.RunSummary{TotalTracks: len(pairs), MatchedTracks: len(pairs)}

	resumed, err := c.ledger.ResumeState()
	if err != nil {
		return summary, err
	}

	var batch []models.FieldChange
	for _, pair := range pairs {
		batch = append(batch, filterResumed(BuildChanges(pair), resumed)...)
	}
	if len(batch) == 0 {
		return summary, nil
	}

	switch decide(artist, batch) {
	case Apply:
		s, err := c.applyBatch(ctx, batch)
		summary.Add(s)
		return summary, err
	case Skip, Exit:
		// Declined proposals still go into the ledger as a record of what
		// was proposed, then are marked skipped without applying.
		for i := range batch {
			if err := c.ledger.Record(&batch[i]); err != nil {
				return summary, err
			}
			if err := c.ledger.MarkSkipped(batch[i].ID); err != nil {
				return summary, err
			}
			summary.Skipped++
		}
		return summary, nil
	}
	return summary, nil
}

// applyBatch runs confirmed changes one by one: ledger first, server call
// second, outcome third. A failed field write is recorded and the batch
// keeps going; one bad track never aborts the run.
func (c *Cleaner) applyBatch(ctx context.Context, batch []models.FieldChange) (models.RunSummary, error) {
	var summary models.RunSummary
	for i := range batch {
		ch := &batch[i]
		if err := c.ledger.Record(ch); err != nil {
			return summary, err
		}
		if err := c.updater.UpdateTrackField(ctx, c.sectionID, ch.ServerID, ch.Field, ch.NewValue); err != nil {
			log.Printf("update failed for track %s field %s: %v", ch.ServerID, ch.Field, err)
			if lerr := c.ledger.MarkFailed(ch.ID, err.Error()); lerr != nil {
				return summary, lerr
			}
			summary.Failed++
			continue
		}
		if err := c.ledger.MarkApplied(ch.ID); err != nil {
			return summary, err
		}
		log.Printf("updated track %s: %s %q -> %q", ch.ServerID, ch.Field, ch.OldValue, ch.NewValue)
		summary.Applied++
		summary.CountField(ch.Field)
	}
	return summary, nil
}

// CleanAll walks every artist in deterministic alphabetical order,
// asking the decider per artist. An Exit decision stops at the artist
// boundary; the ledger lets a later run pick up where this one left off.
func (c *Cleaner) CleanAll(ctx context.Context, pairs []models.MatchedPair, decide Decider) (models.RunSummary, error) {
	byArtist := make(map[string][]models.MatchedPair)
	for _, pair := range pairs {
		// Group by the reference artist: it is the authoritative name.
		byArtist[pair.Reference.Artist] = append(byArtist[pair.Reference.Artist], pair)
	}
	artists := make([]string, 0, len(byArtist))
	for artist := range byArtist {
		artists = append(artists, artist)
	}
	sort.Strings(artists)

	total := models.RunSummary{}
	for _, artist := range artists {
		artistPairs := byArtist[artist]

		resumed, err := c.ledger.ResumeState()
		if err != nil {
			return total, err
		}
		var batch []models.FieldChange
		for _, pair := range artistPairs {
			batch = append(batch, filterResumed(BuildChanges(pair), resumed)...)
		}
		total.TotalTracks += len(artistPairs)
		total.MatchedTracks += len(artistPairs)
		if len(batch) == 0 {
			continue
		}

		switch decide(artist, batch) {
		case Apply:
			s, err := c.applyBatch(ctx, batch)
			total.Add(s)
			if err != nil {
				return total, err
			}
		case Skip:
			for i := range batch {
				if err := c.ledger.Record(&batch[i]); err != nil {
					return total, err
				}
				if err := c.ledger.MarkSkipped(batch[i].ID); err != nil {
					return total, err
				}
				total.Skipped++
			}
		case Exit:
			log.Printf("exiting clean run at artist boundary: %s", artist)
			return total, nil
		}
	}
	return total, nil
}
