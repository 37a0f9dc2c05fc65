package policy

import "strings"

// Context keys with fixed meaning during expansion. Everything else in the
// scalar mapping comes from config-declared variables.
const (
	// KeyProjectName is the project the generated policies belong to.
	KeyProjectName = "project_name"

	// KeyEnvironment is the run's target environment.
	KeyEnvironment = "environment"

	// KeyTable is the per-entry schema.table id during fan-out.
	KeyTable = "table"

	// KeySchema is the per-entry schema name during fan-out.
	KeySchema = "schema"

	// KeyTableName is the per-entry bare table name during fan-out.
	KeyTableName = "table_name"

	// KeyColumns is the per-entry comma-joined column list during a
	// table_columns fan-out.
	KeyColumns = "columns"
)

// Context is the variable mapping commands are resolved against: scalar
// values (project, environment, config variables) plus the run-derived
// table list and table-to-columns grouping. It is built once per invocation
// and treated as immutable during expansion.
type Context struct {
	values       map[string]string
	tables       []string
	tableColumns map[string][]string
	tableOrder   []string
}

// NewContext creates a context seeded with the run's project and environment.
func NewContext(projectName, environment string) *Context {
	return &Context{
		values: map[string]string{
			KeyProjectName: projectName,
			KeyEnvironment: environment,
		},
		tableColumns: make(map[string][]string),
	}
}

// SetTables supplies the schema.table ids commands fan out over, in source
// file order.
func (c *Context) SetTables(tables []string) {
	c.tables = tables
}

// SetTableColumns supplies the table-to-columns grouping and its iteration
// order (first appearance in the column file).
func (c *Context) SetTableColumns(grouped map[string][]string, order []string) {
	c.tableColumns = grouped
	c.tableOrder = order
}

// SetVariable merges a config-declared variable into the scalar mapping.
// Config variables win over run-derived keys on name collision.
func (c *Context) SetVariable(name, value string) {
	c.values[name] = value
}

// Value looks up a scalar context value.
func (c *Context) Value(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Tables returns the fan-out table ids in source order.
func (c *Context) Tables() []string {
	return c.tables
}

// TableColumns returns the grouping and its iteration order.
func (c *Context) TableColumns() (map[string][]string, []string) {
	return c.tableColumns, c.tableOrder
}

// entryValues derives the per-entry scalar bindings for one fan-out entry.
// columns is nil outside a table_columns fan-out.
func entryValues(tableID string, columns []string) map[string]string {
	schema, name := splitTableID(tableID)
	entry := map[string]string{
		KeyTable:     tableID,
		KeySchema:    schema,
		KeyTableName: name,
	}
	if columns != nil {
		entry[KeyColumns] = strings.Join(columns, ",")
	}
	return entry
}

// splitTableID splits a schema.table id at the first dot. Ids without a dot
// bind both keys to the whole id.
func splitTableID(id string) (schema, table string) {
	if i := strings.Index(id, "."); i >= 0 {
		return id[:i], id[i+1:]
	}
	return id, id
}
