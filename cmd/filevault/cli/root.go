// Package cli implements the filevault command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionInfo is stamped at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

// NewRootCommand returns the filevault command tree. Configuration comes from
// the environment.
func NewRootCommand(info VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "filevault",
		Short:         "Multi-tenant file version control",
		Long:          "Manage versioned files of many tenants: uploads, retention cleanup, storage tiering and cost recommendations.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       fmt.Sprintf("%s.%s", info.Version, info.Commit),
	}

	cmd.AddCommand(
		NewWorkerCommand(),
		NewMigrateCommand(),
		NewCheckCommand(),
		NewCleanupCommand(),
		NewOptimizeCommand(),
		NewRecommendCommand(),
		NewImportCommand(),
		NewUpgradeCommand(),
		NewFilesCommand(),
		NewPutCommand(),
		NewURLCommand(),
	)

	return cmd
}
