package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/platformops/policytool/cmd/policytool/cmd/audit"
	"github.com/platformops/policytool/cmd/policytool/cmd/rulesync"
	"github.com/platformops/policytool/cmd/policytool/cmd/tagsync"
)

// NewTagSyncCommand creates the tagsync command with app dependencies.
func (a *App) NewTagSyncCommand() *cobra.Command {
	return tagsync.NewCommand(a)
}

// NewAuditCommand creates the audit command with app dependencies.
func (a *App) NewAuditCommand() *cobra.Command {
	return audit.NewCommand(a)
}

// NewRuleSyncCommand creates the rulesync command with app dependencies.
func (a *App) NewRuleSyncCommand() *cobra.Command {
	return rulesync.NewCommand(a)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "policytool version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
