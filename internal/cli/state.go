package cli

import (
	"fmt"

	"github.com/lazypower/tidemark/internal/model"
	"github.com/spf13/cobra"
)

var stateJSON bool

var stateCmd = &cobra.Command{
	Use:   "state <person>",
	Short: "Show a person's longitudinal state",
	Args:  cobra.ExactArgs(1),
	RunE:  runState,
}

func init() {
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "Print the state document as JSON")
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, _, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := db.GetState(args[0])
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	if st == nil {
		fmt.Printf("No state for %s. Run `tidemark run all` first.\n", args[0])
		return nil
	}
	if stateJSON {
		return printJSON(st)
	}

	fmt.Printf("## %s (updated %s)\n\n", st.PersonID, st.UpdatedAt.Format("2006-01-02"))
	for _, d := range model.Dimensions {
		ds := st.Get(d)
		fmt.Printf("  %-8s %-5s mag=%.2f vol=%.2f conf=%.2f %s\n",
			d, ds.Direction, ds.Magnitude, ds.Volatility, ds.Confidence, ds.Lifecycle)
	}
	return nil
}
