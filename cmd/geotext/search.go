package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search SOURCE PHRASE...",
	Short: "Print the paragraph most similar to a phrase",
	Args:  cobra.MinimumNArgs(2),
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
		res := doc.Search(cmd.Context(), strings.Join(args[1:], " "))
		if res.Empty() {
			fmt.Println("No matching paragraph.")
			return nil
		}
		fmt.Printf("score=%.3f chapter=%d paragraph=%d\n\n%s\n", res.Score, res.Paragraph.Chapter+1, res.Paragraph.Index+1, res.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
