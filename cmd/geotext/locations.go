package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"geotext/internal/domain"
)

var locationsJSON bool

var locationsCmd = &cobra.Command{
	Use:   "locations SOURCE",
	Short: "Report the significant places mentioned in a text",
	Long: `Resolve every place mentioned in SOURCE (a file path or an http(s) URL) and
print those that pass the relevance filter, most mentioned first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		doc, err := a.loadDocument(ctx, args[0])
		if err != nil {
			return err
		}
		report, err := doc.Locations(ctx)
		if err != nil {
			return err
		}

		if locationsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Println(renderReport(report))
		return nil
	},
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderReport(report []domain.LocationReport) string {
	if len(report) == 0 {
		return "No significant locations."
	}
	rows := make([][]string, 0, len(report))
	for _, r := range report {
		rows = append(rows, []string{
			r.Location,
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Lon, 'f', 4, 64),
			strconv.FormatFloat(r.Lat, 'f', 4, 64),
			r.Class,
			r.Type,
			strconv.FormatBool(r.HasProtagonist),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("LOCATION", "COUNT", "LON", "LAT", "CLASS", "TYPE", "PROTAGONIST").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func init() {
	rootCmd.AddCommand(locationsCmd)
	locationsCmd.Flags().BoolVar(&locationsJSON, "json", false, "Output in JSON format")
}
