package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brettwatson77/autoPLEX/internal/config"
	"github.com/brettwatson77/autoPLEX/internal/ledger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show change ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stats only needs the ledger, not the server or the reference.
		led, err := ledger.Open(config.Load().LedgerPath)
		if err != nil {
			return err
		}
		defer led.Close()
		return printStats(led)
	},
}

func printStats(led *ledger.Ledger) error {
	stats, err := led.Stats()
	if err != nil {
		return err
	}
	fmt.Println("\n===== Cleaning Statistics =====")
	fmt.Printf("Total changes recorded: %d\n", stats.TotalChanges)
	fmt.Printf("Tracks touched:         %d\n", stats.TracksChanged)
	if len(stats.ByField) > 0 {
		fmt.Println("Changes by field:")
		for field, n := range stats.ByField {
			fmt.Printf("  - %s: %d\n", field, n)
		}
	}
	if len(stats.ByStatus) > 0 {
		fmt.Println("Changes by status:")
		for status, n := range stats.ByStatus {
			fmt.Printf("  - %s: %d\n", status, n)
		}
	}
	return nil
}
