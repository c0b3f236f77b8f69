package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tidal-pipeline/internal/app"
)

var (
	analyzeYear         int
	analyzeFrom         string
	analyzeTo           string
	analyzeConstituents []string
)

const dateLayout = "2006-01-02"

var analyzeCmd = &cobra.Command{
	Use:   "analyze <directory>",
	Short: "Ingest a directory of station files and report trend, constituents, and contiguity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (analyzeFrom == "") != (analyzeTo == "") {
			return fmt.Errorf("--from and --to must be provided together")
		}
		if analyzeYear != 0 && analyzeFrom != "" {
			return fmt.Errorf("--year and --from/--to are mutually exclusive")
		}

		opts := app.AnalyzeOptions{
			Directory:    args[0],
			Year:         analyzeYear,
			Constituents: analyzeConstituents,
		}

		if analyzeFrom != "" {
			from, err := time.Parse(dateLayout, analyzeFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			to, err := time.Parse(dateLayout, analyzeTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.From = &from
			opts.To = &to
		}

		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeYear, "year", 0, "Restrict analysis to one calendar year")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Window start date (YYYY-MM-DD, inclusive)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "Window end date (YYYY-MM-DD, inclusive)")
	analyzeCmd.Flags().StringSliceVar(&analyzeConstituents, "constituents", nil, "Tidal constituents to fit (defaults to config)")
}
