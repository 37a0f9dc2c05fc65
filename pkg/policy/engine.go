package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/logging"
)

// placeholderPattern matches {name} references in command arguments.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// fanMode selects what a command is expanded over.
type fanMode int

const (
	// fanNone expands a command into exactly one policy.
	fanNone fanMode = iota

	// fanTables expands a command once per table, in source order.
	fanTables

	// fanColumns expands a command once per table that has columns, in
	// first-appearance order of the column file.
	fanColumns
)

// Engine expands templated commands into concrete policies. Expansion is
// two-pass: every placeholder of every command is validated against the
// context before any policy is produced, so a single undefined placeholder
// fails the whole rule set without partial output.
type Engine struct {
	logger *zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger used during expansion.
func WithEngineLogger(logger *zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an expansion engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: logging.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand resolves every command against the context and returns the
// resulting policies in command order. Fan-out preserves the context's
// collection order, so the output is deterministic for a given input.
func (e *Engine) Expand(commands []Command, ctx *Context) ([]Policy, error) {
	if err := e.validate(commands, ctx); err != nil {
		return nil, err
	}

	var out []Policy
	for _, cmd := range commands {
		policies := e.expandCommand(cmd, ctx)
		e.logger.Debug().
			Str("command", cmd.Name()).
			Int("policies", len(policies)).
			Msg("expanded command")
		out = append(out, policies...)
	}
	return out, nil
}

// validate checks every placeholder of every command before expansion.
func (e *Engine) validate(commands []Command, ctx *Context) error {
	for _, cmd := range commands {
		if cmd.Kind != KindApplyRule {
			return errors.NewMalformedSourceError("rule set", 0,
				fmt.Sprintf("unknown command kind: %q", cmd.Kind), nil)
		}
		mode := commandMode(cmd)
		for _, key := range argKeys(cmd) {
			for _, placeholder := range placeholdersIn(cmd.Args[key]) {
				if !resolvable(placeholder, mode, ctx) {
					return errors.NewTemplateError(cmd.Name(), placeholder,
						"is not defined in the context")
				}
			}
		}
	}
	return nil
}

// expandCommand produces the policies for one validated command.
func (e *Engine) expandCommand(cmd Command, ctx *Context) []Policy {
	switch commandMode(cmd) {
	case fanColumns:
		grouped, order := ctx.TableColumns()
		policies := make([]Policy, 0, len(order))
		for _, tableID := range order {
			columns := grouped[tableID]
			if columns == nil {
				columns = []string{}
			}
			entry := entryValues(tableID, columns)
			policies = append(policies, buildPolicy(cmd, ctx, entry))
		}
		return policies
	case fanTables:
		tables := ctx.Tables()
		policies := make([]Policy, 0, len(tables))
		for _, tableID := range tables {
			entry := entryValues(tableID, nil)
			policies = append(policies, buildPolicy(cmd, ctx, entry))
		}
		return policies
	default:
		return []Policy{buildPolicy(cmd, ctx, nil)}
	}
}

// commandMode classifies a command by the per-entry keys it references.
// A {columns} reference selects the table_columns fan-out; any other
// per-table key selects the plain table fan-out.
func commandMode(cmd Command) fanMode {
	refs := make(map[string]bool)
	for _, value := range cmd.Args {
		for _, placeholder := range placeholdersIn(value) {
			refs[placeholder] = true
		}
	}
	switch {
	case refs[KeyColumns]:
		return fanColumns
	case refs[KeyTable] || refs[KeySchema] || refs[KeyTableName]:
		return fanTables
	default:
		return fanNone
	}
}

// resolvable reports whether a placeholder can be bound under the given
// fan-out mode.
func resolvable(placeholder string, mode fanMode, ctx *Context) bool {
	if _, ok := ctx.Value(placeholder); ok {
		return true
	}
	switch placeholder {
	case KeyTable, KeySchema, KeyTableName:
		return mode == fanTables || mode == fanColumns
	case KeyColumns:
		return mode == fanColumns
	}
	return false
}

// buildPolicy substitutes one command's arguments and maps them onto the
// policy wire shape. entry carries the per-entry bindings and is nil for
// commands that do not fan out.
func buildPolicy(cmd Command, ctx *Context, entry map[string]string) Policy {
	resolve := func(s string) string {
		return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
			name := match[1 : len(match)-1]
			if entry != nil {
				if v, ok := entry[name]; ok {
					return v
				}
			}
			v, _ := ctx.Value(name)
			return v
		})
	}

	p := Policy{
		Service:     resolve(cmd.Args[ArgService]),
		Name:        resolve(cmd.Args[ArgName]),
		Description: resolve(cmd.Args[ArgDescription]),
		IsEnabled:   true,
		Resources:   make(map[string]Resource),
	}

	for _, key := range []string{ArgDatabase, ArgTable, ArgColumn} {
		if raw, ok := cmd.Args[key]; ok {
			p.Resources[key] = Resource{Values: splitList(resolve(raw))}
		}
	}

	item := Item{}
	if raw, ok := cmd.Args[ArgUsers]; ok {
		item.Users = splitList(resolve(raw))
	}
	if raw, ok := cmd.Args[ArgGroups]; ok {
		item.Groups = splitList(resolve(raw))
	}
	if raw, ok := cmd.Args[ArgAccesses]; ok {
		for _, access := range splitList(resolve(raw)) {
			item.Accesses = append(item.Accesses, Access{Type: access, IsAllowed: true})
		}
	}
	if len(item.Users) > 0 || len(item.Groups) > 0 || len(item.Accesses) > 0 {
		p.PolicyItems = []Item{item}
	}
	return p
}

// placeholdersIn returns the placeholder names referenced by a string, in
// order of appearance.
func placeholdersIn(s string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// splitList splits a comma-separated argument value, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
