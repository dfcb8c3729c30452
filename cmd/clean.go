package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/brettwatson77/autoPLEX/internal/cleaner"
	"github.com/brettwatson77/autoPLEX/internal/matcher"
	"github.com/brettwatson77/autoPLEX/internal/models"
)

var (
	cleanArtistName string
	cleanAssumeYes  bool
)

var cleanAllCmd = &cobra.Command{
	Use:   "clean-all",
	Short: "Walk every artist and overwrite mismatched metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return runCleanAll(cmd.Context(), app)
	},
}

var cleanArtistCmd = &cobra.Command{
	Use:   "clean-artist",
	Short: "Overwrite mismatched metadata for one artist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanArtistName == "" {
			return fmt.Errorf("--name is required")
		}
		app, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return runCleanArtist(cmd.Context(), app, cleanArtistName)
	},
}

func init() {
	cleanArtistCmd.Flags().StringVar(&cleanArtistName, "name", "", "artist to clean")
	cleanArtistCmd.Flags().BoolVarP(&cleanAssumeYes, "yes", "y", false, "apply without confirmation")
	cleanAllCmd.Flags().BoolVarP(&cleanAssumeYes, "yes", "y", false, "apply every batch without prompting")
}

// fetchServerTracks pulls the whole music section with a progress bar.
func fetchServerTracks(ctx context.Context, app *app) ([]models.TrackRecord, error) {
	bar := progressbar.Default(-1, "fetching Plex tracks")
	records, err := app.client.SectionTracks(ctx, app.cfg.MusicSection, func(fetched, total int) {
		bar.ChangeMax(total)
		_ = bar.Set(fetched)
	})
	_ = bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("listing Plex section %s: %w", app.cfg.MusicSection, err)
	}
	return records, nil
}

// reportUnmatched logs the informational match leftovers: entries only in
// the reference, orphans only on the server (with a nearest-key hint), and
// ambiguous duplicates excluded from patching.
func reportUnmatched(res matcher.Result, reference map[string]models.TrackRecord) {
	if n := len(res.ReferenceOnly); n > 0 {
		log.Printf("%d reference tracks have no Plex record (not acted on)", n)
	}
	if n := len(res.ServerOnly); n > 0 {
		log.Printf("%d Plex tracks are not in the reference library:", n)
		for i, rec := range res.ServerOnly {
			if i >= 10 {
				log.Printf("  ... and %d more", n-10)
				break
			}
			if hint, score := matcher.Suggest(rec.FileKey, reference); hint != "" {
				log.Printf("  - %s (nearest reference key %s, %.2f)", rec.FileKey, hint, score)
			} else {
				log.Printf("  - %s", rec.FileKey)
			}
		}
	}
	for key, dups := range res.Ambiguous {
		log.Printf("ambiguous: file key %s is catalogued %d times on Plex, skipping (resolve manually)", key, len(dups))
	}
}

// promptDecider shows a batch and asks [y]es/[n]o/[e]xit on stdin.
func promptDecider(in *bufio.Reader) cleaner.Decider {
	return func(artist string, batch []models.FieldChange) cleaner.Decision {
		fmt.Printf("\nArtist: %s\n", artist)
		fmt.Printf("Proposed changes (%d):\n", len(batch))
		for _, ch := range batch {
			fmt.Printf("  [%s] %s: %q -> %q\n", ch.ServerID, ch.Field, ch.OldValue, ch.NewValue)
		}
		for {
			fmt.Print("\nClean this artist? [y]es/[n]o/[e]xit: ")
			line, err := in.ReadString('\n')
			if err != nil {
				return cleaner.Exit
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return cleaner.Apply
			case "n", "no":
				return cleaner.Skip
			case "e", "exit":
				return cleaner.Exit
			}
			fmt.Println("Invalid choice. Please enter 'y', 'n', or 'e'.")
		}
	}
}

func decider() cleaner.Decider {
	if cleanAssumeYes {
		return cleaner.AlwaysApply
	}
	return promptDecider(bufio.NewReader(os.Stdin))
}

func runCleanAll(ctx context.Context, app *app) error {
	reference, err := app.source.AllTracks()
	if err != nil {
		return err
	}
	server, err := fetchServerTracks(ctx, app)
	if err != nil {
		return err
	}

	res := matcher.Match(reference, server)
	reportUnmatched(res, reference)

	eng := cleaner.New(app.client, app.ledger, app.cfg.MusicSection)
	summary, err := eng.CleanAll(ctx, res.Pairs, decider())
	summary.Ambiguous = len(res.Ambiguous)
	printSummary(summary)
	return err
}

func runCleanArtist(ctx context.Context, app *app, name string) error {
	reference, err := app.source.TracksByArtist(name)
	if err != nil {
		return err
	}
	if len(reference) == 0 {
		return fmt.Errorf("no reference tracks found for artist %q", name)
	}
	server, err := fetchServerTracks(ctx, app)
	if err != nil {
		return err
	}

	res := matcher.Match(reference, server)
	for key, dups := range res.Ambiguous {
		log.Printf("ambiguous: file key %s is catalogued %d times on Plex, skipping", key, len(dups))
	}

	eng := cleaner.New(app.client, app.ledger, app.cfg.MusicSection)
	summary, err := eng.CleanArtist(ctx, name, res.Pairs, decider())
	summary.Ambiguous = len(res.Ambiguous)
	printSummary(summary)
	return err
}

func printSummary(s models.RunSummary) {
	fmt.Println("\n===== Run Summary =====")
	fmt.Printf("Matched tracks:  %d\n", s.MatchedTracks)
	fmt.Printf("Applied changes: %d (title %d, artist %d, album %d)\n",
		s.Applied, s.TitleUpdates, s.ArtistUpdates, s.AlbumUpdates)
	fmt.Printf("Failed changes:  %d\n", s.Failed)
	fmt.Printf("Skipped changes: %d\n", s.Skipped)
	fmt.Printf("Ambiguous keys:  %d\n", s.Ambiguous)
}
