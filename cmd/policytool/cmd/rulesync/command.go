// Package rulesync provides the rulesync command implementation.
package rulesync

import (
	"github.com/spf13/cobra"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/cmd/application"
	"github.com/platformops/policytool/internal/cmd/output"
	"github.com/platformops/policytool/internal/cmd/source"
	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/policy"
	"github.com/platformops/policytool/pkg/tags"
)

// NewCommand creates the rulesync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		projectName string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:     "rulesync",
		Aliases: []string{"rules_to_ranger"},
		Short:   "Expand policy rules and converge the policy service",
		Long: `Rulesync expands the templated rule file against the tag files and the
run context, then converges the policy service toward the result:
missing policies are created, drifted ones are updated in place, and
policies whose names carry one of the run's owned prefixes but match no
rule are deleted. Policies outside the owned prefixes are never touched.

The owned prefixes are <project-name>_<environment> and ` + constants.LoadETLPrefix + `.
With --dryrun the full plan is printed and nothing is applied.`,
		Example: `  policytool rulesync -p finance -e prod -c config.json
  policytool rulesync -p finance -c config.json --dryrun`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			application.DefaultEnvironmentAnnotation: constants.DefaultEnvironment,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			files := source.Resolve(app.SourceDir())
			ruleFile := files.RuleFile()
			if !source.Gate(cmd.OutOrStdout(), files.TableTags, files.ColumnTags, ruleFile) {
				return nil
			}

			// Rule expansion works on the raw declarations; the environment
			// reaches the policies through the context, not through record
			// tags.
			tables, columns, err := source.LoadRecords(files.TableTags, files.ColumnTags)
			if err != nil {
				return err
			}

			commands, err := source.LoadRules(ruleFile)
			if err != nil {
				return err
			}

			env, err := app.EnvironmentConfig(app.EnvironmentName())
			if err != nil {
				return err
			}

			pctx := buildContext(projectName, app.EnvironmentName(), tables, columns)
			for _, v := range env.Variables {
				pctx.SetVariable(v.Name, v.Value)
			}

			prefixes := []string{
				projectName + "_" + app.EnvironmentName(),
				constants.LoadETLPrefix,
			}

			client, err := app.ClientWithOptions(policytool.WithDryRun(dryRun))
			if err != nil {
				return err
			}

			actions, err := client.ApplyPolicies(ctx, commands, pctx, prefixes)
			if err != nil {
				return err
			}
			return render(cmd, app, actions, dryRun)
		},
	}

	cmd.Flags().StringVarP(&projectName, "project-name", "p", "", "project whose policies this run owns")
	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "plan the policy changes without applying them")
	//nolint:errcheck // the flag is registered two lines up
	_ = cmd.MarkFlagRequired("project-name")

	return cmd
}

// buildContext seeds the expansion context with the run identity and the
// entities declared in the tag files.
func buildContext(projectName, environment string, tables, columns []tags.Record) *policy.Context {
	pctx := policy.NewContext(projectName, environment)

	ids := tags.Tables(tables)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	pctx.SetTables(names)

	grouped, order := tags.TableColumns(columns)
	byTable := make(map[string][]string, len(grouped))
	tableOrder := make([]string, len(order))
	for i, id := range order {
		tableOrder[i] = id.String()
		byTable[id.String()] = grouped[id]
	}
	pctx.SetTableColumns(byTable, tableOrder)

	return pctx
}

// render prints the plan. Dry runs always report, otherwise the actions
// show up only when an output format was requested.
func render(cmd *cobra.Command, app application.Application, actions []policy.Action, dryRun bool) error {
	if !dryRun && app.OutputFormat() == "" {
		return nil
	}

	format := output.FormatTable
	if app.OutputFormat() != "" {
		format = output.DetectFormat(app.OutputFormat())
	}
	w := cmd.OutOrStdout()

	if format != output.FormatTable {
		return output.NewFormatter(format).Format(w, actions)
	}

	data := output.ActionsData(actions)
	if data.Empty() {
		_, err := w.Write([]byte("No policy changes.\n"))
		return err
	}
	return output.NewFormatter(format).Format(w, data)
}
