package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"geotext/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui SOURCE",
	Short: "Search a text interactively",
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
		summary := fmt.Sprintf("%s by %s, %d chapters, %d paragraphs",
			orDefault(md["title"], "Untitled"), orDefault(md["author"], "unknown"),
			len(doc.Chapters()), len(doc.Paragraphs()))

		_, err = tea.NewProgram(tui.New(doc, summary), tea.WithAltScreen()).Run()
		return err
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
