// Package cmd wires the command-line surface: subcommands for scripted
// runs and an interactive menu when invoked bare.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/brettwatson77/autoPLEX/internal/config"
	"github.com/brettwatson77/autoPLEX/internal/ledger"
	"github.com/brettwatson77/autoPLEX/internal/library"
	"github.com/brettwatson77/autoPLEX/internal/plex"
)

const logFileName = "autoplex.log"

var rootCmd = &cobra.Command{
	Use:   "autoplex",
	Short: "Overwrite Plex music metadata from an Apple Music library",
	Long: `autoPLEX reconciles a Plex music section against an Apple Music
library (XML export or .musiclibrary database), overwriting Plex's scraped
title/artist/album so they exactly match the reference, and replicating
playlists. Every change is recorded in a local ledger so interrupted runs
can resume.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation drops into the interactive menu.
		app, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return runMenu(cmd.Context(), app)
	},
}

// Execute runs the CLI. Exit code 0 on clean completion or explicit exit,
// non-zero on fatal configuration/connection failure.
func Execute() {
	if f, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	if err := rootCmd.Execute(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

// app holds the per-run collaborators, built once and threaded explicitly.
type app struct {
	cfg    config.Config
	source library.Source
	client *plex.Client
	ledger *ledger.Ledger
}

// setup loads configuration, opens the reference source, verifies the Plex
// connection and opens the ledger. Any failure here aborts the run before
// a single catalog mutation.
func setup(ctx context.Context) (*app, error) {
	cfg := config.Load()

	xmlName, err := config.FindXMLExport(".")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(xmlName != ""); err != nil {
		return nil, err
	}

	source, err := library.Open(cfg, ".")
	if err != nil {
		return nil, err
	}
	if xmlName != "" {
		log.Printf("using Apple Music XML export: %s", xmlName)
	} else {
		log.Printf("using Apple Music library database: %s", cfg.LibraryPath)
	}

	client := plex.NewClient(cfg)
	if err := client.Verify(ctx); err != nil {
		source.Close()
		return nil, fmt.Errorf("cannot reach Plex server at %s: %w", cfg.ServerURL, err)
	}

	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		source.Close()
		return nil, err
	}

	return &app{cfg: cfg, source: source, client: client, ledger: led}, nil
}

func (a *app) Close() {
	if err := a.source.Close(); err != nil {
		log.Printf("closing reference source: %v", err)
	}
	if err := a.ledger.Close(); err != nil {
		log.Printf("closing ledger: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(cleanAllCmd, cleanArtistCmd, syncPlaylistCmd, statsCmd)
}
