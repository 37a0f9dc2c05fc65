package policytool

import (
	"fmt"
	"strings"

	"github.com/platformops/policytool/pkg/tags"
)

// AuditReport lists every difference found between the source records and
// the catalog, in report order. Set-difference lists are sorted; per-entity
// diffs follow source record order. Columns the catalog has but the source
// does not declare are not reported, since source files only cover the
// columns that carry tags.
type AuditReport struct {
	// MissingTags are tags the source files use that the catalog's
	// vocabulary does not define.
	MissingTags []string `json:"missing_tags,omitempty" yaml:"missing_tags,omitempty"`

	// CatalogOnlyTables are tables the catalog has in the audited schemas
	// that no source record declares.
	CatalogOnlyTables []string `json:"catalog_only_tables,omitempty" yaml:"catalog_only_tables,omitempty"`

	// SourceOnlyTables are tables the source declares that the catalog is
	// missing.
	SourceOnlyTables []string `json:"source_only_tables,omitempty" yaml:"source_only_tables,omitempty"`

	// SourceOnlyColumns are columns the source declares that the catalog is
	// missing.
	SourceOnlyColumns []string `json:"source_only_columns,omitempty" yaml:"source_only_columns,omitempty"`

	// TableDiffs are per-table tag differences for tables present on both
	// sides.
	TableDiffs []tags.EntityDiff `json:"table_diffs,omitempty" yaml:"table_diffs,omitempty"`

	// ColumnDiffs are per-column tag differences for columns present on
	// both sides.
	ColumnDiffs []tags.EntityDiff `json:"column_diffs,omitempty" yaml:"column_diffs,omitempty"`
}

// Empty reports whether the audit found no differences at all.
func (r *AuditReport) Empty() bool {
	return len(r.MissingTags) == 0 &&
		len(r.CatalogOnlyTables) == 0 &&
		len(r.SourceOnlyTables) == 0 &&
		len(r.SourceOnlyColumns) == 0 &&
		len(r.TableDiffs) == 0 &&
		len(r.ColumnDiffs) == 0
}

// Lines renders the report as human-readable finding lines, one per
// difference group, in report order. An empty report renders no lines.
func (r *AuditReport) Lines() []string {
	lines := []string{}
	if len(r.MissingTags) > 0 {
		lines = append(lines, "Tag(s) missing in Atlas: "+strings.Join(r.MissingTags, ", "))
	}
	if len(r.CatalogOnlyTables) > 0 {
		lines = append(lines, fmt.Sprintf("Tables only found in Atlas schema: %s", strings.Join(r.CatalogOnlyTables, ", ")))
	}
	if len(r.SourceOnlyTables) > 0 {
		lines = append(lines, fmt.Sprintf("Tables only found in metadata schema: %s", strings.Join(r.SourceOnlyTables, ", ")))
	}
	if len(r.SourceOnlyColumns) > 0 {
		lines = append(lines, fmt.Sprintf("Columns only found in metadata: %s", strings.Join(r.SourceOnlyColumns, ", ")))
	}
	lines = append(lines, diffLines(r.TableDiffs, "table")...)
	lines = append(lines, diffLines(r.ColumnDiffs, "column")...)
	return lines
}

// diffLines renders per-entity tag differences: first the tags the catalog
// is missing, then the tags the source is missing.
func diffLines(diffs []tags.EntityDiff, kind string) []string {
	lines := []string{}
	for _, d := range diffs {
		if d.Diff.SourceOnly.Len() > 0 {
			lines = append(lines, fmt.Sprintf("Atlas missing following tags for %s: %s tags: %s",
				kind, d.Entity, strings.Join(d.Diff.SourceOnly.Sorted(), ", ")))
		}
		if d.Diff.CatalogOnly.Len() > 0 {
			lines = append(lines, fmt.Sprintf("Metadata missing following tags for %s: %s tags: %s",
				kind, d.Entity, strings.Join(d.Diff.CatalogOnly.Sorted(), ", ")))
		}
	}
	return lines
}
