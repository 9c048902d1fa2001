package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geotext/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load known locations from a CSV file",
	Long: `Load known locations from a CSV file with a header row naming the columns
name, lon, lat, class and type. All rows are written in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := store.SeedCSV(cmd.Context(), a.store, f)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d locations.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
