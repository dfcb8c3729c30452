// Package filekey derives the join key both catalogs are matched on: a
// normalized form of the track's underlying media file location.
package filekey

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a filesystem path into a join key. Separators are
// unified, case is folded and the string is NFC-normalized so that the same
// physical file yields the same key no matter which system reported it.
// Metadata values are never normalized, only the key.
func Normalize(path string) string {
	key := strings.ReplaceAll(path, "\\", "/")
	key = norm.NFC.String(key)
	return strings.ToLower(key)
}

// DecodeFileURL converts an Apple Music "file://" location into a plain
// path. Returns false for non-file URLs (streaming-only tracks).
func DecodeFileURL(location string) (string, bool) {
	if !strings.HasPrefix(location, "file://") {
		return "", false
	}
	path := strings.TrimPrefix(location, "file://")
	path = strings.TrimPrefix(path, "localhost")

	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}

	// macOS external volumes: /Volumes/M/Music/... -> M:/Music/...
	if rest, ok := strings.CutPrefix(path, "/Volumes/"); ok {
		if name, tail, found := strings.Cut(rest, "/"); found {
			return name + ":/" + tail, true
		}
		return rest, true
	}

	// Windows drive letters come through as /M:/Music/...
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		return path[1:], true
	}

	return path, true
}

// FromLocation decodes and normalizes in one step.
func FromLocation(location string) (string, bool) {
	path, ok := DecodeFileURL(location)
	if !ok {
		return "", false
	}
	return Normalize(path), true
}
