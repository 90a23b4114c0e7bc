package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lazypower/tidemark/internal/client"
	"github.com/lazypower/tidemark/internal/engine"
	"github.com/lazypower/tidemark/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	runPerson string
	runJSON   bool
	runRemote string
)

var runCmd = &cobra.Command{
	Use:       "run <rollup|pressure|state|signals|all>",
	Short:     "Run a weekly job once",
	Long:      "Run one component, or all of them in dependency order, for every person or a single --person.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"rollup", "pressure", "state", "signals", "all"},
	RunE:      runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPerson, "person", "", "Only process this person")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print results as JSON")
	runCmd.Flags().StringVar(&runRemote, "remote", "", "Trigger the run on a tidemark server at this URL instead of locally")
}

func runRun(cmd *cobra.Command, args []string) error {
	var components []engine.Component
	if args[0] == "all" {
		components = engine.Components
	} else {
		c, err := engine.ParseComponent(args[0])
		if err != nil {
			return err
		}
		components = []engine.Component{c}
	}

	if runRemote != "" {
		results, err := client.New(runRemote).TriggerRun(args[0], runPerson)
		if err != nil {
			return fmt.Errorf("remote run %s: %w", args[0], err)
		}
		return printResults(results)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, _, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var person *string
	if runPerson != "" {
		person = &runPerson
	}

	eng := newEngine(cfg, db, metrics.NewNoopCollector())
	var results []engine.RunResult
	for _, c := range components {
		res, err := eng.Run(ctx, c, person)
		if err != nil {
			return fmt.Errorf("run %s: %w", c, err)
		}
		results = append(results, res)
	}
	return printResults(results)
}

func printResults(results []engine.RunResult) error {
	if runJSON {
		return printJSON(results)
	}
	for _, r := range results {
		fmt.Printf("%-8s %s  processed=%d updated=%d failed=%d\n",
			r.Component, r.Status, r.Processed, r.Updated, len(r.Failures))
		for _, f := range r.Failures {
			fmt.Printf("  %s [%s]: %s\n", f.PersonID, f.Type, f.Error)
		}
	}
	return nil
}
