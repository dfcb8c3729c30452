package library

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brettwatson77/autoPLEX/internal/filekey"
	"github.com/brettwatson77/autoPLEX/internal/models"
)

// MusicDB is the reference source backed by the SQLite database inside an
// Apple Music .musiclibrary bundle. Opened read-only; this tool never
// writes to the reference.
type MusicDB struct {
	db      *sql.DB
	cleanup func() error // removes the temp copy of a remote database
}

// OpenMusicDB resolves libraryPath to a database file and connects.
// Accepted forms: a direct .db/.musicdb/.musiclibrary file path, a
// local or UNC directory to crawl, or user@host:/path for SSH retrieval.
func OpenMusicDB(libraryPath string) (*MusicDB, error) {
	libraryPath = strings.TrimSpace(strings.Trim(libraryPath, `"'`))

	var cleanup func() error
	dbPath, err := findDatabase(libraryPath)
	if err != nil {
		return nil, err
	}
	if dbPath == "" && isSSHPath(libraryPath) {
		dbPath, cleanup, err = fetchRemoteDatabase(libraryPath)
		if err != nil {
			return nil, err
		}
	}
	if dbPath == "" {
		return nil, fmt.Errorf("could not locate a library database under %q", libraryPath)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening library database %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to library database %s: %w", dbPath, err)
	}
	return &MusicDB{db: db, cleanup: cleanup}, nil
}

// findDatabase locates the database file for a local or UNC path. Empty
// result with nil error means "not found here" (the SSH fallback may apply).
func findDatabase(libraryPath string) (string, error) {
	info, err := os.Stat(libraryPath)
	if err != nil {
		return "", nil
	}

	if !info.IsDir() {
		switch strings.ToLower(filepath.Ext(libraryPath)) {
		case ".db", ".musicdb", ".musiclibrary":
			return libraryPath, nil
		}
		return "", fmt.Errorf("%q is not a recognized library database file", libraryPath)
	}

	var found string
	err = filepath.WalkDir(libraryPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil // keep crawling past unreadable entries
		}
		ext := strings.ToLower(filepath.Ext(path))
		if (ext == ".db" || ext == ".musicdb") && strings.Contains(d.Name(), "Library") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("crawling %q: %w", libraryPath, err)
	}
	return found, nil
}

// isSSHPath recognizes user@host:/path specs, taking care not to mistake a
// Windows drive path (C:\...) for one.
func isSSHPath(path string) bool {
	if len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		return false
	}
	return strings.Contains(path, "@") && strings.Contains(path, ":")
}

const trackQuery = `
SELECT
	item.title,
	COALESCE(artist.name, '') AS artist_name,
	COALESCE(album.title, '') AS album_title,
	item.location AS file_path
FROM item
LEFT JOIN artist ON item.artist_pid = artist.persistent_id
LEFT JOIN album ON item.album_pid = album.persistent_id
WHERE item.location IS NOT NULL`

func (m *MusicDB) scanTracks(query string, args ...any) (map[string]models.TrackRecord, error) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying library tracks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.TrackRecord)
	for rows.Next() {
		var title, artist, album, location string
		if err := rows.Scan(&title, &artist, &album, &location); err != nil {
			return nil, fmt.Errorf("scanning library track: %w", err)
		}
		key, ok := filekey.FromLocation(location)
		if !ok {
			continue
		}
		out[key] = models.TrackRecord{
			FileKey: key,
			Artist:  artist,
			Album:   album,
			Title:   title,
			Source:  models.SourceReference,
		}
	}
	return out, rows.Err()
}

func (m *MusicDB) AllTracks() (map[string]models.TrackRecord, error) {
	return m.scanTracks(trackQuery)
}

func (m *MusicDB) TracksByArtist(name string) (map[string]models.TrackRecord, error) {
	return m.scanTracks(trackQuery+" AND artist.name LIKE ?", "%"+name+"%")
}

func (m *MusicDB) PlaylistTracks(name string) ([]string, error) {
	playlists, err := m.playlistMap()
	if err != nil {
		return nil, err
	}
	return resolvePlaylist(playlists, name)
}

func (m *MusicDB) Playlists() ([]models.PlaylistSpec, error) {
	playlists, err := m.playlistMap()
	if err != nil {
		return nil, err
	}
	specs := make([]models.PlaylistSpec, 0, len(playlists))
	for name, keys := range playlists {
		specs = append(specs, models.PlaylistSpec{Name: name, FileKeys: keys})
	}
	return specs, nil
}

func (m *MusicDB) playlistMap() (map[string][]string, error) {
	rows, err := m.db.Query(`
SELECT playlist.name, item.location
FROM playlist
JOIN playlist_item ON playlist_item.playlist_id = playlist.persistent_id
JOIN item ON playlist_item.track_id = item.persistent_id
WHERE item.location IS NOT NULL
ORDER BY playlist.name, playlist_item.position`)
	if err != nil {
		return nil, fmt.Errorf("querying library playlists: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var name, location string
		if err := rows.Scan(&name, &location); err != nil {
			return nil, fmt.Errorf("scanning playlist row: %w", err)
		}
		if key, ok := filekey.FromLocation(location); ok {
			out[name] = append(out[name], key)
		}
	}
	return out, rows.Err()
}

func (m *MusicDB) Close() error {
	err := m.db.Close()
	if m.cleanup != nil {
		if cerr := m.cleanup(); err == nil {
			err = cerr
		}
	}
	return err
}
