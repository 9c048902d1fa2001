package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var topicsCount int

var topicsCmd = &cobra.Command{
	Use:   "topics SOURCE",
	Short: "Show the strongest topics of the search index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.loadDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		topics := doc.Topics(topicsCount)
		if len(topics) == 0 {
			fmt.Println("No topics: the index is empty or has no topic model.")
			return nil
		}
		for _, tp := range topics {
			terms := make([]string, len(tp.Terms))
			for i, tw := range tp.Terms {
				terms[i] = fmt.Sprintf("%.3f*%q", tw.Weight, tw.Term)
			}
			fmt.Printf("%3d: %s\n", tp.ID, strings.Join(terms, " + "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.Flags().IntVarP(&topicsCount, "num", "n", 5, "Number of topics to show")
}
