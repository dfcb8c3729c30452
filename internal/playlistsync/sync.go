// Package playlistsync replicates a reference playlist onto the server.
// Replacement is total: a playlist that already exists is rebuilt with
// exactly the resolved membership, because a partial merge cannot express
// deletions consistently.
package playlistsync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/brettwatson77/autoPLEX/internal/models"
	"github.com/brettwatson77/autoPLEX/internal/plex"
)

// ReferenceResolver is the slice of the reference library this needs.
type ReferenceResolver interface {
	PlaylistTracks(name string) ([]string, error)
}

// Catalog is the slice of the server client this needs.
type Catalog interface {
	Playlists(ctx context.Context) ([]plex.Playlist, error)
	CreatePlaylist(ctx context.Context, name string, ratingKeys []string) error
	DeletePlaylist(ctx context.Context, ratingKey string) error
}

// Result reports one sync run.
type Result struct {
	Total    int      // tracks in the reference playlist
	Matched  int      // tracks resolved to server records
	Missing  []string // file keys with no server match, skipped
	Replaced bool     // an existing server playlist was rebuilt
}

// Synchronizer resolves reference playlists against the server catalog.
type Synchronizer struct {
	ref     ReferenceResolver
	catalog Catalog
	// server records indexed by file key; ambiguous duplicates must be
	// excluded by the caller before building this index.
	serverByKey map[string]models.TrackRecord
}

func New(ref ReferenceResolver, catalog Catalog, serverByKey map[string]models.TrackRecord) *Synchronizer {
	return &Synchronizer{ref: ref, catalog: catalog, serverByKey: serverByKey}
}

// Sync replicates the named playlist. Returns library.ErrPlaylistNotFound
// (wrapped) when the reference has no such playlist.
func (s *Synchronizer) Sync(ctx context.Context, name string) (Result, error) {
	keys, err := s.ref.PlaylistTracks(name)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(keys)}
	ratingKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		rec, ok := s.serverByKey[key]
		if !ok {
			res.Missing = append(res.Missing, key)
			continue
		}
		ratingKeys = append(ratingKeys, rec.ServerID)
		res.Matched++
	}
	if len(ratingKeys) == 0 {
		return res, fmt.Errorf("no tracks of playlist %q exist on the server", name)
	}

	// Rebuild rather than merge: delete any same-named playlist first.
	existing, err := s.catalog.Playlists(ctx)
	if err != nil {
		return res, err
	}
	for _, pl := range existing {
		if strings.EqualFold(pl.Title, name) {
			if err := s.catalog.DeletePlaylist(ctx, pl.RatingKey); err != nil {
				return res, err
			}
			res.Replaced = true
			break
		}
	}

	if err := s.catalog.CreatePlaylist(ctx, name, ratingKeys); err != nil {
		return res, err
	}

	for _, key := range res.Missing {
		log.Printf("playlist %q: no server track for %s", name, key)
	}
	return res, nil
}
