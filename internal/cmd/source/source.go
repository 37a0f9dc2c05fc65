// Package source locates and loads the declarative input files commands
// operate on: tag declarations and templated policy rules under one source
// directory.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/policy"
	"github.com/platformops/policytool/pkg/tags"
)

// Files holds the resolved paths of the declarative inputs.
type Files struct {
	TableTags  string
	ColumnTags string
	Rules      string
	RulesYAML  string
}

// Resolve locates the input files under dir using their conventional names.
func Resolve(dir string) Files {
	return Files{
		TableTags:  filepath.Join(dir, constants.TableTagsFile),
		ColumnTags: filepath.Join(dir, constants.ColumnTagsFile),
		Rules:      filepath.Join(dir, constants.RangerPoliciesFile),
		RulesYAML:  filepath.Join(dir, constants.RangerPoliciesFileYAML),
	}
}

// RuleFile returns the rule file to load, preferring the JSON rendition and
// falling back to YAML when only that exists.
func (f Files) RuleFile() string {
	if _, err := os.Stat(f.Rules); err == nil {
		return f.Rules
	}
	if _, err := os.Stat(f.RulesYAML); err == nil {
		return f.RulesYAML
	}
	return f.Rules
}

// Missing returns the given paths that do not exist, in argument order.
func Missing(paths ...string) []string {
	missing := []string{}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

// Gate checks that every required input exists. When one is missing it
// prints the operator-facing skip notice to w and reports false. Repos
// without declarations are skipped, not failed, so callers return nil.
func Gate(w io.Writer, paths ...string) bool {
	missing := Missing(paths...)
	if len(missing) == 0 {
		return true
	}
	fmt.Fprintf(w, "Following files are missing: %s\n", strings.Join(missing, ", "))
	fmt.Fprintln(w, "Will not run, exiting!")
	return false
}

// LoadRecords reads the table and column tag files as declared, without
// stamping. Rule expansion uses these for entity identity only.
func LoadRecords(tableFile, columnFile string) (tables, columns []tags.Record, err error) {
	tables, err = tags.LoadTableTags(tableFile)
	if err != nil {
		return nil, nil, err
	}
	columns, err = tags.LoadColumnTags(columnFile)
	if err != nil {
		return nil, nil, err
	}
	return tables, columns, nil
}

// LoadTags reads the table and column tag files and stamps every record
// with the run's environment tag.
func LoadTags(tableFile, columnFile, environment string) (tables, columns []tags.Record, err error) {
	tables, columns, err = LoadRecords(tableFile, columnFile)
	if err != nil {
		return nil, nil, err
	}
	return tags.WithEnvironment(tables, environment), tags.WithEnvironment(columns, environment), nil
}

// LoadRules reads the templated policy commands from the rule file.
func LoadRules(path string) ([]policy.Command, error) {
	return policy.LoadCommands(path)
}
