// Package audit provides the audit command implementation.
package audit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/cmd/application"
	"github.com/platformops/policytool/internal/cmd/output"
	"github.com/platformops/policytool/internal/cmd/source"
	"github.com/platformops/policytool/pkg/errors"
)

// NewCommand creates the audit command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit",
		Aliases: []string{"audit_tags"},
		Short:   "Compare declared tags against the metadata catalog",
		Long: `Audit reads the table and column tag files, stamps each record with the
destination environment's tag, and reports every difference between the
declared state and the catalog: tags missing from the catalog's
vocabulary, tables only one side knows about, columns declared but not
cataloged, and per-entity tag differences in both directions for tables
and in the declared-but-missing direction for columns.

The catalog is never modified and differences do not fail the command.`,
		Example: `  policytool audit -e prod -c config.json
  policytool audit -e prod -c config.json -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if app.EnvironmentName() == "" {
				return errors.NewConfigError("audit", "environment is required (use --environment)", nil)
			}

			files := source.Resolve(app.SourceDir())
			if !source.Gate(cmd.OutOrStdout(), files.TableTags, files.ColumnTags) {
				return nil
			}

			tables, columns, err := source.LoadTags(files.TableTags, files.ColumnTags, app.EnvironmentName())
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}

			report, err := client.AuditTags(ctx, tables, columns)
			if err != nil {
				return err
			}
			return render(cmd, app, report)
		},
	}

	return cmd
}

// render prints the report. The default and table formats emit the
// classic line-per-difference text, so findings stay greppable; json
// and yaml marshal the report struct instead.
func render(cmd *cobra.Command, app application.Application, report *policytool.AuditReport) error {
	w := cmd.OutOrStdout()

	format := output.FormatTable
	if app.OutputFormat() != "" {
		format = output.DetectFormat(app.OutputFormat())
	}
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(w, report)
	}

	for _, line := range report.Lines() {
		fmt.Fprintln(w, line)
	}
	return nil
}
