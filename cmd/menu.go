package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

// runMenu is the no-argument interactive loop. Non-fatal errors from a
// chosen action are reported and the menu comes back.
func runMenu(ctx context.Context, app *app) error {
	in := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\n===== autoPLEX =====")
		fmt.Println("1. Clean entire library")
		fmt.Println("2. Clean tracks for specific artist")
		fmt.Println("3. Sync playlist from Apple Music to Plex")
		fmt.Println("4. View cleaning statistics")
		fmt.Println("0. Exit")
		fmt.Print("\nEnter your choice (0-4): ")

		line, err := in.ReadString('\n')
		if err != nil {
			return nil // EOF counts as an explicit exit
		}

		switch strings.TrimSpace(line) {
		case "0":
			return nil
		case "1":
			if err := runCleanAll(ctx, app); err != nil {
				log.Printf("clean failed: %v", err)
			}
		case "2":
			name, ok := readLine(in, "Enter artist name: ")
			if !ok {
				return nil
			}
			if err := runCleanArtist(ctx, app, name); err != nil {
				log.Printf("clean failed: %v", err)
			}
		case "3":
			name, ok := readLine(in, "Enter playlist name: ")
			if !ok {
				return nil
			}
			if err := runSyncPlaylist(ctx, app, name); err != nil {
				log.Printf("playlist sync failed: %v", err)
			}
		case "4":
			if err := printStats(app.ledger); err != nil {
				log.Printf("stats failed: %v", err)
			}
		default:
			fmt.Println("Invalid choice. Please try again.")
		}
	}
}

func readLine(in *bufio.Reader, prompt string) (string, bool) {
	fmt.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(line), true
}
