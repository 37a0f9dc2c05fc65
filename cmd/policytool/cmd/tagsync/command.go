// Package tagsync provides the tagsync command implementation.
package tagsync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/cmd/application"
	"github.com/platformops/policytool/internal/cmd/output"
	"github.com/platformops/policytool/internal/cmd/source"
	"github.com/platformops/policytool/pkg/errors"
)

// NewCommand creates the tagsync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var retry int

	cmd := &cobra.Command{
		Use:     "tagsync",
		Aliases: []string{"tags_to_atlas"},
		Short:   "Sync tags from source files to the metadata catalog",
		Long: `Tagsync reads the table and column tag files and converges the catalog
toward them: tags an entity is missing are associated, tags it already
carries are left alone, and tags are never removed. Every record is
stamped with the destination environment's tag before syncing.

Tables are synced before columns, so a column never gains a tag while
its table is still behind. Each --retry multiplies the 'retries' value
of the selected environment into the total attempt budget; without it
failed entities are reported after a single attempt.`,
		Example: `  policytool tagsync -e prod -c config.json
  policytool tagsync -e prod -c config.json -r        # retries x 1
  policytool tagsync -e prod -c config.json -rr -v    # retries x 2, with progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if app.EnvironmentName() == "" {
				return errors.NewConfigError("tagsync", "environment is required (use --environment)", nil)
			}

			files := source.Resolve(app.SourceDir())
			if !source.Gate(cmd.OutOrStdout(), files.TableTags, files.ColumnTags) {
				return nil
			}

			tables, columns, err := source.LoadTags(files.TableTags, files.ColumnTags, app.EnvironmentName())
			if err != nil {
				return err
			}

			env, err := app.EnvironmentConfig(app.EnvironmentName())
			if err != nil {
				return err
			}

			client, err := app.ClientWithOptions(policytool.WithRetryBudget(retry * env.Retries))
			if err != nil {
				return err
			}

			result, err := client.SyncTags(ctx, tables, columns)
			if result != nil {
				if renderErr := render(cmd, app, result); renderErr != nil && err == nil {
					err = renderErr
				}
			}
			if err != nil {
				return fmt.Errorf("%w Tag sync not complete, fix errors and re-run.", err)
			}
			return nil
		},
	}

	cmd.Flags().CountVarP(&retry, "retry", "r", "retry on fail; the attempt budget is this count times the configured retries")

	return cmd
}

// render reports the sync worklogs when an output format was requested.
// Without one the command stays quiet on success, like the logs at the
// default level.
func render(cmd *cobra.Command, app application.Application, result *policytool.SyncResult) error {
	if app.OutputFormat() == "" {
		return nil
	}
	format := output.DetectFormat(app.OutputFormat())
	w := cmd.OutOrStdout()

	if format == output.FormatTable {
		data := output.SyncResultData(result)
		if data.Empty() {
			fmt.Fprintln(w, result.Summary())
			return nil
		}
		return output.NewFormatter(format).Format(w, data)
	}
	return output.NewFormatter(format).Format(w, result)
}
