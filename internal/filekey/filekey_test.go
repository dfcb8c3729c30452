package filekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFileURL(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
		ok       bool
	}{
		{
			name:     "windows drive with localhost",
			location: "file://localhost/M:/Daft%20Punk/Discovery/One%20More%20Time.flac",
			want:     "M:/Daft Punk/Discovery/One More Time.flac",
			ok:       true,
		},
		{
			name:     "macos volume",
			location: "file:///Volumes/Media/Music/track.flac",
			want:     "Media:/Music/track.flac",
			ok:       true,
		},
		{
			name:     "posix path",
			location: "file:///home/brett/music/track.flac",
			want:     "/home/brett/music/track.flac",
			ok:       true,
		},
		{
			name:     "streaming track has no file url",
			location: "",
			ok:       false,
		},
		{
			name:     "http url is not a file",
			location: "https://music.apple.com/track/123",
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeFileURL(tt.location)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	// Backslashes, case and Unicode composition all fold to one key.
	a := Normalize(`M:\Daft Punk\Discovery\One More Time.flac`)
	b := Normalize("m:/daft punk/discovery/one more time.flac")
	assert.Equal(t, a, b)

	// NFD vs NFC spellings of the same name.
	decomposed := Normalize("/music/Beyonce\u0301/track.flac")
	composed := Normalize("/music/Beyonc\u00e9/track.flac")
	assert.Equal(t, composed, decomposed)
}

func TestFromLocation(t *testing.T) {
	key, ok := FromLocation("file://localhost/M:/Daft%20Punk/Discovery/One%20More%20Time.flac")
	require.True(t, ok)
	assert.Equal(t, "m:/daft punk/discovery/one more time.flac", key)

	_, ok = FromLocation("")
	assert.False(t, ok)
}
