package tags

import "strings"

// EntityID identifies a catalog entity as schema.table or schema.table.column.
type EntityID string

// TableID builds the identity of a table entity.
func TableID(schema, table string) EntityID {
	return EntityID(schema + "." + table)
}

// ColumnID builds the identity of a column entity.
func ColumnID(schema, table, column string) EntityID {
	return EntityID(schema + "." + table + "." + column)
}

// String returns the id as a plain string.
func (id EntityID) String() string {
	return string(id)
}

// Table returns the table portion (schema.table) of the id. For table ids
// this is the id itself.
func (id EntityID) Table() EntityID {
	parts := strings.SplitN(string(id), ".", 3)
	if len(parts) < 2 {
		return id
	}
	return EntityID(parts[0] + "." + parts[1])
}

// Record is one source-declared tag assignment: a catalog entity plus the
// tag set that must be present on it. The environment tag is injected into
// Tags at load time; it is not a separate field.
type Record struct {
	Schema string `json:"schema" yaml:"schema"`
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"` // empty for table-level records
	Tags   Set    `json:"tags" yaml:"tags"`
}

// ID returns the entity identity of the record.
func (r Record) ID() EntityID {
	if r.Column != "" {
		return ColumnID(r.Schema, r.Table, r.Column)
	}
	return TableID(r.Schema, r.Table)
}

// IsColumn reports whether the record targets a column entity.
func (r Record) IsColumn() bool {
	return r.Column != ""
}

// Entity is the catalog's view of one table or column: the same identity
// fields plus the observed tag set and the catalog's own GUID. It is a
// read-only snapshot taken once per run.
type Entity struct {
	Schema string `json:"schema" yaml:"schema"`
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	GUID   string `json:"guid" yaml:"guid"`
	Tags   Set    `json:"tags" yaml:"tags"`
}

// ID returns the entity identity.
func (e Entity) ID() EntityID {
	if e.Column != "" {
		return ColumnID(e.Schema, e.Table, e.Column)
	}
	return TableID(e.Schema, e.Table)
}

// WithEnvironment stamps every record with the run's environment tag, added
// to each record's tag set so downstream diffing treats it as any other tag.
// The input records are left untouched.
func WithEnvironment(records []Record, environment string) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		stamped := r
		stamped.Tags = r.Tags.Clone()
		stamped.Tags.Add(environment)
		out[i] = stamped
	}
	return out
}

// Schemas returns the distinct schemas referenced by the records, in first
// appearance order.
func Schemas(records []Record) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		if !seen[r.Schema] {
			seen[r.Schema] = true
			out = append(out, r.Schema)
		}
	}
	return out
}

// Tables returns the distinct table ids referenced by the records, in first
// appearance order. Column records contribute their owning table.
func Tables(records []Record) []EntityID {
	seen := make(map[EntityID]bool)
	out := []EntityID{}
	for _, r := range records {
		id := TableID(r.Schema, r.Table)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// TableColumns groups column names by their owning table id, preserving the
// records' order for both tables and columns.
func TableColumns(records []Record) (map[EntityID][]string, []EntityID) {
	grouped := make(map[EntityID][]string)
	order := []EntityID{}
	for _, r := range records {
		if r.Column == "" {
			continue
		}
		id := TableID(r.Schema, r.Table)
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], r.Column)
	}
	return grouped, order
}

// Universe returns the union of every record's tag set: all tags the source
// files declare anywhere.
func Universe(records []Record) Set {
	out := make(Set)
	for _, r := range records {
		for name := range r.Tags {
			out[name] = struct{}{}
		}
	}
	return out
}
