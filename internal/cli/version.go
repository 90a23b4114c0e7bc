package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/tidemark/internal/store"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionJSON bool

// BuildInfo describes the binary and the schema it migrates to.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Schema    int    `json:"schema"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildInfo()
		if versionJSON {
			return printJSON(info)
		}
		fmt.Printf("tidemark %s (commit: %s, built: %s, schema: %d)\n", info.Version, info.Commit, info.BuildDate, info.Schema)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version information as JSON")
}

func buildInfo() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate, Schema: store.LatestSchemaVersion()}
}

// VersionString returns a formatted version string for use in health checks.
func VersionString() string {
	return fmt.Sprintf("%s (%s, schema %d)", Version, Commit, store.LatestSchemaVersion())
}
