package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Major Version</key><integer>1</integer>
	<key>Tracks</key>
	<dict>
		<key>1001</key>
		<dict>
			<key>Track ID</key><integer>1001</integer>
			<key>Name</key><string>One More Time</string>
			<key>Artist</key><string>Daft Punk</string>
			<key>Album</key><string>Discovery</string>
			<key>Location</key><string>file://localhost/M:/Daft%20Punk/Discovery/One%20More%20Time.flac</string>
		</dict>
		<key>1002</key>
		<dict>
			<key>Track ID</key><integer>1002</integer>
			<key>Name</key><string>Aerodynamic</string>
			<key>Artist</key><string>Daft Punk</string>
			<key>Album</key><string>Discovery</string>
			<key>Location</key><string>file://localhost/M:/Daft%20Punk/Discovery/Aerodynamic.flac</string>
		</dict>
		<key>1003</key>
		<dict>
			<key>Track ID</key><integer>1003</integer>
			<key>Name</key><string>Streaming Only</string>
			<key>Artist</key><string>Cloud Artist</string>
		</dict>
	</dict>
	<key>Playlists</key>
	<array>
		<dict>
			<key>Name</key><string>Library</string>
			<key>Master</key><true/>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>1001</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Recently Played</string>
			<key>Distinguished Kind</key><integer>22</integer>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>1001</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Road Trip</string>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>1002</integer></dict>
				<dict><key>Track ID</key><integer>1001</integer></dict>
				<dict><key>Track ID</key><integer>1003</integer></dict>
			</array>
		</dict>
	</array>
</dict>
</plist>`

func writeExport(t *testing.T) *XMLLibrary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Library.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))
	lib, err := OpenXML(path)
	require.NoError(t, err)
	return lib
}

func TestOpenXMLTracks(t *testing.T) {
	lib := writeExport(t)

	tracks, err := lib.AllTracks()
	require.NoError(t, err)

	// Streaming-only entries have no location and are dropped.
	require.Len(t, tracks, 2)

	rec, ok := tracks["m:/daft punk/discovery/one more time.flac"]
	require.True(t, ok)
	assert.Equal(t, "Daft Punk", rec.Artist)
	assert.Equal(t, "Discovery", rec.Album)
	assert.Equal(t, "One More Time", rec.Title)
}

func TestTracksByArtistSubstringMatch(t *testing.T) {
	lib := writeExport(t)

	tracks, err := lib.TracksByArtist("daft")
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	tracks, err = lib.TracksByArtist("nobody")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestPlaylistsSkipSystemLists(t *testing.T) {
	lib := writeExport(t)

	specs, err := lib.Playlists()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "Road Trip", specs[0].Name)

	// Order preserved; the locationless track is not resolvable.
	assert.Equal(t, []string{
		"m:/daft punk/discovery/aerodynamic.flac",
		"m:/daft punk/discovery/one more time.flac",
	}, specs[0].FileKeys)
}

func TestPlaylistTracksLookup(t *testing.T) {
	lib := writeExport(t)

	keys, err := lib.PlaylistTracks("Road Trip")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// Case-insensitive fallback.
	keys, err = lib.PlaylistTracks("road trip")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// Substring as a last resort.
	keys, err = lib.PlaylistTracks("road")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	_, err = lib.PlaylistTracks("does not exist")
	assert.True(t, errors.Is(err, ErrPlaylistNotFound))
}
