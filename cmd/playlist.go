package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brettwatson77/autoPLEX/internal/matcher"
	"github.com/brettwatson77/autoPLEX/internal/models"
	"github.com/brettwatson77/autoPLEX/internal/playlistsync"
)

var syncPlaylistName string

var syncPlaylistCmd = &cobra.Command{
	Use:   "sync-playlist",
	Short: "Replicate an Apple Music playlist onto Plex",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPlaylistName == "" {
			return fmt.Errorf("--name is required")
		}
		app, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return runSyncPlaylist(cmd.Context(), app, syncPlaylistName)
	},
}

func init() {
	syncPlaylistCmd.Flags().StringVar(&syncPlaylistName, "name", "", "playlist to sync")
}

func runSyncPlaylist(ctx context.Context, app *app, name string) error {
	server, err := fetchServerTracks(ctx, app)
	if err != nil {
		return err
	}

	// Index unambiguous server records by file key; duplicates stay out of
	// playlist resolution the same way they stay out of patching.
	reference, err := app.source.AllTracks()
	if err != nil {
		return err
	}
	res := matcher.Match(reference, server)
	byKey := make(map[string]models.TrackRecord, len(res.Pairs)+len(res.ServerOnly))
	for _, pair := range res.Pairs {
		byKey[pair.Server.FileKey] = pair.Server
	}
	for _, rec := range res.ServerOnly {
		byKey[rec.FileKey] = rec
	}

	sync := playlistsync.New(app.source, app.client, byKey)
	result, err := sync.Sync(ctx, name)
	if err != nil {
		return err
	}

	fmt.Println("\n===== Playlist Sync =====")
	fmt.Printf("Playlist:       %s\n", name)
	fmt.Printf("Tracks:         %d\n", result.Total)
	fmt.Printf("Matched:        %d\n", result.Matched)
	fmt.Printf("Missing:        %d\n", len(result.Missing))
	if result.Replaced {
		fmt.Println("Replaced an existing Plex playlist with the same name.")
	}
	return nil
}
