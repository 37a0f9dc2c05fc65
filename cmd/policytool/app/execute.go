package app

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/platformops/policytool/internal/cmd/application"
	"github.com/platformops/policytool/internal/cmd/output"
	"github.com/platformops/policytool/pkg/logging"
)

// Execute parses args and runs the selected command. main calls this once.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.createRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// createRootCommand builds the root cobra command, its persistent flags,
// and the subcommand tree.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "policytool",
		Short:   "Tag reconciliation and access policy sync",
		Version: a.version,
		Long: `Policytool reconciles source-declared metadata tags against the
metadata catalog and applies templated access policies to the policy
service.

Tag and rule declarations live as files under the source directory of
the repository that owns them. Service endpoints come from a per-
environment config file; credentials come from the process environment
(ATLAS_USERNAME/ATLAS_PASSWORD or ATLAS_TOKEN, same for RANGER_*).`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.config.ConfigFile, "config", "c", a.config.ConfigFile, "config file with per-environment service endpoints")
	pf.StringVarP(&a.config.SrcDir, "srcdir", "s", a.config.SrcDir, "directory holding the tag and rule files")
	pf.StringVarP(&a.config.Environment, "environment", "e", "", "destination environment")
	pf.CountVarP(&a.config.Verbose, "verbose", "v", "verbose output (-v for progress, -vv for per-entity detail)")
	pf.BoolVarP(&a.config.Quiet, "quiet", "q", false, "errors only")
	pf.BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	pf.StringVarP(&a.config.Format, "format", "o", "", "output format: table, json, yaml")
	pf.StringVar(&a.config.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Keep --version output in the same shape as the version subcommand.
	rootCmd.SetVersionTemplate("policytool {{.Version}}\n")

	rootCmd.AddCommand(
		a.NewTagSyncCommand(),
		a.NewAuditCommand(),
		a.NewRuleSyncCommand(),
		a.NewVersionCommand(),
	)

	return rootCmd
}

// setupCommand runs before every command. It folds the parsed persistent
// flags back into the configuration, rebuilds the logger at the resulting
// level, and stamps the invocation with a run id and the subcommand name so
// log lines from the catalog and the policy service can be correlated
// afterwards.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetCount(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	// Commands that declare a default environment get it when the flag is
	// not given; everything else requires an explicit --environment.
	if a.config.Environment == "" {
		if def, ok := cmd.Annotations[application.DefaultEnvironmentAnnotation]; ok {
			a.config.Environment = def
		}
	}

	// Reject a bad --format here so every command fails the same way.
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	ctx = logging.WithRunID(ctx, uuid.NewString())
	ctx = logging.WithOperation(ctx, cmd.Name())
	a.logger = logging.FromContext(ctx)
	cmd.SetContext(ctx)

	return nil
}

// ExitOnError prints err to stderr and exits with status 1. A nil err is a
// no-op, so main can call it unconditionally as its last line.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// The mustGet* helpers read persistent flags declared in createRootCommand.
// A lookup only fails on a flag name typo, so they panic rather than return
// an error every command would have to thread through.

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("undeclared flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("undeclared flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetCount(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetCount(name)
	if err != nil {
		panic("undeclared flag " + name + ": " + err.Error())
	}
	return v
}
