package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries everything the clients need. It is built once in main and
// passed into constructors; nothing reads the environment at call sites.
type Config struct {
	ServerURL    string // Plex base URL
	ServerToken  string // Plex auth token
	MusicSection string // target music library section id
	VideoSection string // optional secondary section id
	LibraryPath  string // Apple Music .musiclibrary / db path (db mode only)
	LedgerPath   string // change ledger database file
}

const defaultLedgerPath = "autoplex_ledger.db"

// Load reads .env (if present) and the process environment.
func Load() Config {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, key := range []string{
		"SOOBIN_URL", "SOOBIN_TOKEN", "MUSIC_SECTION", "VIDEO_SECTION",
		"LIBRARY_MUSICFILE", "AUTOPLEX_LEDGER",
	} {
		_ = v.BindEnv(key)
	}

	cfg := Config{
		ServerURL:    strings.TrimRight(v.GetString("SOOBIN_URL"), "/"),
		ServerToken:  v.GetString("SOOBIN_TOKEN"),
		MusicSection: v.GetString("MUSIC_SECTION"),
		VideoSection: v.GetString("VIDEO_SECTION"),
		LibraryPath:  v.GetString("LIBRARY_MUSICFILE"),
		LedgerPath:   v.GetString("AUTOPLEX_LEDGER"),
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = defaultLedgerPath
	}
	return cfg
}

// Validate fails fast before any I/O happens. xmlPresent relaxes the
// library-path requirement: with an XML export in the working directory the
// database path is never consulted.
func (c Config) Validate(xmlPresent bool) error {
	var missing []string
	if c.ServerURL == "" {
		missing = append(missing, "SOOBIN_URL")
	}
	if c.ServerToken == "" {
		missing = append(missing, "SOOBIN_TOKEN")
	}
	if c.MusicSection == "" {
		missing = append(missing, "MUSIC_SECTION")
	}
	if !xmlPresent && c.LibraryPath == "" {
		missing = append(missing, "LIBRARY_MUSICFILE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("SOOBIN_URL must be an http(s) URL, got %q", c.ServerURL)
	}
	return nil
}

// FindXMLExport returns the first .xml file in dir, preferring it over the
// database path per the source selection rule. Empty string means none.
func FindXMLExport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scanning %s for XML export: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".xml") {
			return e.Name(), nil
		}
	}
	return "", nil
}
