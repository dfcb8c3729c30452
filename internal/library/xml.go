package library

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"howett.net/plist"

	"github.com/brettwatson77/autoPLEX/internal/filekey"
	"github.com/brettwatson77/autoPLEX/internal/models"
)

// Raw plist shapes of an iTunes/Apple Music library export.
type plistLibrary struct {
	Tracks    map[string]plistTrack `plist:"Tracks"`
	Playlists []plistPlaylist       `plist:"Playlists"`
}

type plistTrack struct {
	TrackID  int    `plist:"Track ID"`
	Name     string `plist:"Name"`
	Artist   string `plist:"Artist"`
	Album    string `plist:"Album"`
	Location string `plist:"Location"`
}

type plistPlaylist struct {
	Name              string             `plist:"Name"`
	Master            bool               `plist:"Master"`
	DistinguishedKind *int               `plist:"Distinguished Kind"`
	Items             []plistPlaylistRef `plist:"Playlist Items"`
}

type plistPlaylistRef struct {
	TrackID int `plist:"Track ID"`
}

// XMLLibrary is the reference source backed by an XML export file.
type XMLLibrary struct {
	path      string
	tracks    map[string]models.TrackRecord // file key -> record
	playlists map[string][]string           // name -> ordered file keys
	order     []string                      // playlist names in export order
}

// OpenXML loads and indexes an XML library export.
func OpenXML(path string) (*XMLLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading XML export %s: %w", path, err)
	}

	var raw plistLibrary
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling XML export %s: %w", path, err)
	}

	lib := &XMLLibrary{
		path:      path,
		tracks:    make(map[string]models.TrackRecord, len(raw.Tracks)),
		playlists: make(map[string][]string),
	}

	// Track IDs -> file keys, for resolving playlist items.
	idToKey := make(map[string]string, len(raw.Tracks))

	for id, t := range raw.Tracks {
		// Streaming-only entries carry no Location and cannot be joined.
		key, ok := filekey.FromLocation(t.Location)
		if !ok {
			continue
		}
		lib.tracks[key] = models.TrackRecord{
			FileKey: key,
			Artist:  t.Artist,
			Album:   t.Album,
			Title:   t.Name,
			Source:  models.SourceReference,
		}
		idToKey[id] = key
		if t.TrackID != 0 {
			idToKey[strconv.Itoa(t.TrackID)] = key
		}
	}

	for _, p := range raw.Playlists {
		// Master and Distinguished Kind mark system playlists.
		if p.Master || p.DistinguishedKind != nil || p.Name == "" {
			continue
		}
		var keys []string
		for _, item := range p.Items {
			if key, ok := idToKey[strconv.Itoa(item.TrackID)]; ok {
				keys = append(keys, key)
			}
		}
		if len(keys) == 0 {
			continue
		}
		lib.playlists[p.Name] = keys
		lib.order = append(lib.order, p.Name)
	}

	return lib, nil
}

// Path reports the export file backing this library.
func (l *XMLLibrary) Path() string { return l.path }

func (l *XMLLibrary) AllTracks() (map[string]models.TrackRecord, error) {
	out := make(map[string]models.TrackRecord, len(l.tracks))
	for k, v := range l.tracks {
		out[k] = v
	}
	return out, nil
}

func (l *XMLLibrary) TracksByArtist(name string) (map[string]models.TrackRecord, error) {
	lower := strings.ToLower(name)
	out := make(map[string]models.TrackRecord)
	for k, v := range l.tracks {
		if strings.Contains(strings.ToLower(v.Artist), lower) {
			out[k] = v
		}
	}
	return out, nil
}

func (l *XMLLibrary) PlaylistTracks(name string) ([]string, error) {
	return resolvePlaylist(l.playlists, name)
}

func (l *XMLLibrary) Playlists() ([]models.PlaylistSpec, error) {
	specs := make([]models.PlaylistSpec, 0, len(l.order))
	for _, name := range l.order {
		specs = append(specs, models.PlaylistSpec{Name: name, FileKeys: l.playlists[name]})
	}
	return specs, nil
}

func (l *XMLLibrary) Close() error { return nil }
