package models

import "time"

// Source identifies which system a TrackRecord came from.
type Source string

const (
	SourceReference Source = "reference"
	SourceServer    Source = "server"
)

// TrackRecord is the uniform record shape both the reference library and
// the server catalog are normalized into. FileKey is the sole join key.
type TrackRecord struct {
	FileKey  string `json:"file_key"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Title    string `json:"title"`
	Source   Source `json:"source"`
	ServerID string `json:"server_id,omitempty"` // Plex rating key, server records only
}

// MatchedPair joins a reference record and a server record sharing a FileKey.
type MatchedPair struct {
	Reference TrackRecord `json:"reference"`
	Server    TrackRecord `json:"server"`
}

// ChangeStatus is the lifecycle of a FieldChange. Applied and Failed are
// terminal; the ledger never mutates a row past either.
type ChangeStatus string

const (
	StatusPending ChangeStatus = "pending"
	StatusApplied ChangeStatus = "applied"
	StatusFailed  ChangeStatus = "failed"
	StatusSkipped ChangeStatus = "skipped"
)

// Metadata fields the engine reconciles.
const (
	FieldTitle  = "title"
	FieldArtist = "artist"
	FieldAlbum  = "album"
)

// FieldChange is one proposed metadata overwrite on the server.
type FieldChange struct {
	ID        int64        `json:"id,omitempty"` // ledger row id, set once recorded
	ServerID  string       `json:"server_id"`
	Field     string       `json:"field"`
	OldValue  string       `json:"old_value"`
	NewValue  string       `json:"new_value"`
	Status    ChangeStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// AppliedKey identifies a (server record, field) pair in the ledger's
// resume state.
type AppliedKey struct {
	ServerID string
	Field    string
}

// PlaylistSpec is a named, ordered list of file keys from the reference
// library. Built fresh each run, never persisted.
type PlaylistSpec struct {
	Name     string   `json:"name"`
	FileKeys []string `json:"file_keys"`
}

// RunSummary accumulates the non-fatal outcomes of a clean run.
type RunSummary struct {
	TotalTracks   int `json:"total_tracks"`
	MatchedTracks int `json:"matched_tracks"`
	Applied       int `json:"applied"`
	Failed        int `json:"failed"`
	Skipped       int `json:"skipped"`
	Ambiguous     int `json:"ambiguous"`

	TitleUpdates  int `json:"title_updates"`
	ArtistUpdates int `json:"artist_updates"`
	AlbumUpdates  int `json:"album_updates"`
}

// Add merges another summary into this one.
func (s *RunSummary) Add(other RunSummary) {
	s.TotalTracks += other.TotalTracks
	s.MatchedTracks += other.MatchedTracks
	s.Applied += other.Applied
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Ambiguous += other.Ambiguous
	s.TitleUpdates += other.TitleUpdates
	s.ArtistUpdates += other.ArtistUpdates
	s.AlbumUpdates += other.AlbumUpdates
}

// CountField bumps the per-field counter for an applied change.
func (s *RunSummary) CountField(field string) {
	switch field {
	case FieldTitle:
		s.TitleUpdates++
	case FieldArtist:
		s.ArtistUpdates++
	case FieldAlbum:
		s.AlbumUpdates++
	}
}
