package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tidemark",
	Short: "Longitudinal personal signal fusion",
	Long:  "Tidemark fuses weekly rhythm, workload and tagged episodic evidence into a per-person trend state.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tidemark/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(importCmd)
}
