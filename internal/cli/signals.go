package cli

import (
	"fmt"
	"time"

	"github.com/lazypower/tidemark/internal/signals"
	"github.com/spf13/cobra"
)

var signalsWeek string

var signalsCmd = &cobra.Command{
	Use:   "signals <person>",
	Short: "Show a person's weekly signals",
	Long:  "Print the weekly signals record as JSON. Defaults to the most recent week; --week selects a week start (YYYY-MM-DD).",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignals,
}

func init() {
	signalsCmd.Flags().StringVar(&signalsWeek, "week", "", "Week start date (YYYY-MM-DD)")
}

func runSignals(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, _, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var rec *signals.Record
	if signalsWeek != "" {
		week, err := time.Parse("2006-01-02", signalsWeek)
		if err != nil {
			return fmt.Errorf("parse --week: %w", err)
		}
		rec, err = db.GetSignals(args[0], week)
		if err != nil {
			return err
		}
	} else {
		rec, err = db.LatestSignals(args[0])
		if err != nil {
			return err
		}
	}
	if rec == nil {
		fmt.Printf("No signals for %s.\n", args[0])
		return nil
	}
	return printJSON(rec)
}
