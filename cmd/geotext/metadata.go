package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata SOURCE",
	Short: "Print header metadata and the chapter layout of a text",
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
		md := doc.Metadata()
		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-13s %s\n", k+":", md[k])
		}
		fmt.Println()
		for _, ch := range doc.Chapters() {
			fmt.Printf("%3d  %-60.60s  %d paragraphs\n", ch.Index+1, ch.Header, len(ch.Paragraphs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metadataCmd)
}
