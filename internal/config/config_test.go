package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ServerURL:    "http://plex.local:32400",
		ServerToken:  "secret",
		MusicSection: "2",
		LibraryPath:  `\\nas\music\Library.musicdb`,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate(false))

	missingAll := Config{}
	err := missingAll.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOOBIN_URL")
	assert.Contains(t, err.Error(), "SOOBIN_TOKEN")
	assert.Contains(t, err.Error(), "MUSIC_SECTION")
	assert.Contains(t, err.Error(), "LIBRARY_MUSICFILE")
}

func TestValidateXMLExportRelaxesLibraryPath(t *testing.T) {
	cfg := validConfig()
	cfg.LibraryPath = ""

	assert.Error(t, cfg.Validate(false))
	assert.NoError(t, cfg.Validate(true))
}

func TestValidateRejectsNonHTTPURL(t *testing.T) {
	cfg := validConfig()
	cfg.ServerURL = "plex.local:32400"

	err := cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http")
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SOOBIN_URL", "http://plex.local:32400/")
	t.Setenv("SOOBIN_TOKEN", "secret")
	t.Setenv("MUSIC_SECTION", "2")
	t.Setenv("AUTOPLEX_LEDGER", "")

	cfg := Load()

	// Trailing slash stripped so path joins stay clean.
	assert.Equal(t, "http://plex.local:32400", cfg.ServerURL)
	assert.Equal(t, "secret", cfg.ServerToken)
	assert.Equal(t, "2", cfg.MusicSection)
	assert.Equal(t, defaultLedgerPath, cfg.LedgerPath)
}

func TestFindXMLExport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Backup.xml"), 0o755))

	found, err := FindXMLExport(dir)
	require.NoError(t, err)
	assert.Empty(t, found, "directories and non-xml files do not count")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Library.XML"), []byte("<plist/>"), 0o644))
	found, err = FindXMLExport(dir)
	require.NoError(t, err)
	assert.Equal(t, "Library.XML", found)
}
