// Package library reads the authoritative reference music library, either
// from an iTunes/Apple Music XML export or from the SQLite database inside
// a .musiclibrary bundle, and normalizes it into the uniform record shape.
package library

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brettwatson77/autoPLEX/internal/config"
	"github.com/brettwatson77/autoPLEX/internal/models"
)

var (
	// ErrPlaylistNotFound reports a playlist name with no match in the
	// reference library.
	ErrPlaylistNotFound = errors.New("playlist not found in reference library")

	// ErrSourceUnavailable reports an unreadable or unreachable reference
	// source. Fatal to the run.
	ErrSourceUnavailable = errors.New("reference source unavailable")
)

// Source is the uniform view over the reference library.
type Source interface {
	// AllTracks returns every track keyed by normalized file key.
	AllTracks() (map[string]models.TrackRecord, error)
	// TracksByArtist filters by case-insensitive substring of the artist
	// name, matching how the desktop manager searches.
	TracksByArtist(name string) (map[string]models.TrackRecord, error)
	// PlaylistTracks returns the ordered file keys of a named playlist.
	// Lookup tries exact, then case-insensitive, then substring match and
	// returns ErrPlaylistNotFound when nothing matches.
	PlaylistTracks(name string) ([]string, error)
	// Playlists returns every user playlist as a PlaylistSpec.
	Playlists() ([]models.PlaylistSpec, error)
	Close() error
}

// Open picks the reference source for this run. Any *.xml file in the
// working directory wins over the configured database path.
func Open(cfg config.Config, workDir string) (Source, error) {
	xmlName, err := config.FindXMLExport(workDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if xmlName != "" {
		src, err := OpenXML(filepath.Join(workDir, xmlName))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return src, nil
	}
	if cfg.LibraryPath == "" {
		return nil, fmt.Errorf("%w: no XML export found and LIBRARY_MUSICFILE is unset", ErrSourceUnavailable)
	}
	src, err := OpenMusicDB(cfg.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return src, nil
}

// resolvePlaylist implements the shared exact / case-insensitive /
// substring lookup over a name->keys map, preserving stored order.
func resolvePlaylist(playlists map[string][]string, name string) ([]string, error) {
	if keys, ok := playlists[name]; ok {
		return keys, nil
	}
	lower := strings.ToLower(name)
	for n, keys := range playlists {
		if strings.ToLower(n) == lower {
			return keys, nil
		}
	}
	for n, keys := range playlists {
		if strings.Contains(strings.ToLower(n), lower) {
			return keys, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPlaylistNotFound, name)
}
