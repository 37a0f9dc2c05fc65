package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/platformops/policytool/pkg/errors"
)

// Command kinds understood by the template engine.
const (
	// KindApplyRule expands into one or more concrete policies.
	KindApplyRule = "apply_rule"
)

// Argument keys of an apply_rule command.
const (
	ArgName        = "name"
	ArgService     = "service"
	ArgDescription = "description"
	ArgDatabase    = "database"
	ArgTable       = "table"
	ArgColumn      = "column"
	ArgUsers       = "users"
	ArgGroups      = "groups"
	ArgAccesses    = "accesses"
)

// knownArgs is the full set of reserved argument keys. Anything else in the
// parameter mapping is a typo and rejected at load time.
var knownArgs = map[string]bool{
	ArgName:        true,
	ArgService:     true,
	ArgDescription: true,
	ArgDatabase:    true,
	ArgTable:       true,
	ArgColumn:      true,
	ArgUsers:       true,
	ArgGroups:      true,
	ArgAccesses:    true,
}

// Command is one templated instruction from the rule file: an operation kind
// plus a parameter mapping whose values may embed {placeholder} references.
type Command struct {
	Kind string            `json:"command" yaml:"command"`
	Args map[string]string `json:"args" yaml:"args"`
}

// Name returns the raw (pre-substitution) name argument, used to identify the
// command in errors and logs.
func (c Command) Name() string {
	if name := c.Args[ArgName]; name != "" {
		return name
	}
	return c.Kind
}

// argKeys returns a command's argument keys in sorted order so validation
// visits them deterministically.
func argKeys(cmd Command) []string {
	keys := make([]string, 0, len(cmd.Args))
	for key := range cmd.Args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ruleFile is the on-disk shape of the rule set.
type ruleFile struct {
	Policies []Command `json:"policies" yaml:"policies"`
}

// LoadCommands reads and validates the rule file at path. JSON is assumed
// unless the extension is .yaml or .yml. Validation covers shape only;
// placeholder resolution happens during expansion.
func LoadCommands(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var file ruleFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.WrapParse("yaml", path, err)
		}
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, errors.WrapParse("json", path, err)
		}
	}

	for i, cmd := range file.Policies {
		if err := validateCommand(cmd); err != nil {
			return nil, errors.NewMalformedSourceError(path, i+1, err.Error(), nil)
		}
	}

	return file.Policies, nil
}

func validateCommand(cmd Command) error {
	if cmd.Kind != KindApplyRule {
		return fmt.Errorf("unknown command kind: %q", cmd.Kind)
	}
	if strings.TrimSpace(cmd.Args[ArgName]) == "" {
		return fmt.Errorf("command is missing the name argument")
	}
	if strings.TrimSpace(cmd.Args[ArgService]) == "" {
		return fmt.Errorf("command %s is missing the service argument", cmd.Args[ArgName])
	}
	for _, key := range argKeys(cmd) {
		if !knownArgs[key] {
			return fmt.Errorf("command %s has unknown argument %q", cmd.Args[ArgName], key)
		}
	}
	return nil
}
