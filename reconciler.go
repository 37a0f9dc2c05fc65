package policytool

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/logging"
	"github.com/platformops/policytool/pkg/tags"
)

// SyncResult pairs the worklogs of one sync run. Tables are pushed before
// columns; when the table phase fails the column worklog is nil.
type SyncResult struct {
	Tables  *tags.Worklog `json:"tables,omitempty" yaml:"tables,omitempty"`
	Columns *tags.Worklog `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// HasChanges reports whether any tag was added in either scope.
func (r *SyncResult) HasChanges() bool {
	return (r.Tables != nil && r.Tables.HasChanges()) ||
		(r.Columns != nil && r.Columns.HasChanges())
}

// Summary returns a one-line human-readable account of the run.
func (r *SyncResult) Summary() string {
	parts := []string{}
	if r.Tables != nil {
		parts = append(parts, r.Tables.Summary())
	}
	if r.Columns != nil {
		parts = append(parts, r.Columns.Summary())
	}
	if len(parts) == 0 {
		return "nothing synced"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "; " + p
	}
	return out
}

// Reconciler drives tag synchronization and auditing against a catalog.
// Sync converges the catalog toward the source records with bounded retry;
// Audit reports differences without writing anything.
type Reconciler struct {
	catalog Catalog
	retry   *RetryingSyncer
	logger  *zerolog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcilerLogger sets the logger progress is reported on.
func WithReconcilerLogger(logger *zerolog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReconciler creates a reconciler over the given catalog. The retry
// syncer bounds how often each push scope is re-attempted.
func NewReconciler(catalog Catalog, retry *RetryingSyncer, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		catalog: catalog,
		retry:   retry,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync pushes table records and then column records to the catalog. Columns
// are only attempted once the table scope has fully succeeded, so a column
// never gains a tag while its table is still behind. The partial result is
// returned alongside the error when a scope exhausts its retry budget.
func (r *Reconciler) Sync(ctx context.Context, tables, columns []tags.Record) (*SyncResult, error) {
	result := &SyncResult{}

	r.logger.Info().Int("records", len(tables)).Msg("syncing tags for tables")
	tableLog, err := r.retry.Push(ctx, "table", func(ctx context.Context) ([]tags.WorkEntry, error) {
		return r.catalog.PushTableTags(ctx, tables)
	})
	result.Tables = tableLog
	if err != nil {
		return result, err
	}
	r.logger.Info().Str("result", tableLog.Summary()).Msg("table tags synced")

	r.logger.Info().Int("records", len(columns)).Msg("syncing tags for columns")
	columnLog, err := r.retry.Push(ctx, "column", func(ctx context.Context) ([]tags.WorkEntry, error) {
		return r.catalog.PushColumnTags(ctx, columns)
	})
	result.Columns = columnLog
	if err != nil {
		return result, err
	}
	r.logger.Info().Str("result", columnLog.Summary()).Msg("column tags synced")

	return result, nil
}

// Audit compares the source records against the catalog and returns every
// difference found. Nothing is written; a non-empty report is a finding,
// not an error.
func (r *Reconciler) Audit(ctx context.Context, tables, columns []tags.Record) (*AuditReport, error) {
	report := &AuditReport{}

	r.logger.Info().Msg("checking tag vocabulary")
	vocabulary, err := r.catalog.Classifications(ctx)
	if err != nil {
		return nil, err
	}
	universe := tags.Universe(tables).Union(tags.Universe(columns))
	report.MissingTags = universe.Minus(vocabulary).Sorted()

	r.logger.Info().Msg("comparing tables")
	catalogTables, err := r.catalog.Tables(ctx, tags.Schemas(tables))
	if err != nil {
		return nil, err
	}
	report.CatalogOnlyTables = catalogOnlyIDs(catalogTables, tables)
	report.SourceOnlyTables = sourceOnlyIDs(tables, catalogTables)
	report.TableDiffs = entityDiffs(tables, catalogTables)

	r.logger.Info().Msg("comparing columns")
	catalogColumns, err := r.catalog.Columns(ctx, tags.Tables(columns))
	if err != nil {
		return nil, err
	}
	report.SourceOnlyColumns = sourceOnlyIDs(columns, catalogColumns)
	report.ColumnDiffs = entityDiffs(columns, catalogColumns)

	if report.Empty() {
		r.logger.Info().Msg("source and catalog agree")
	} else {
		r.logger.Info().
			Int("findings", len(report.Lines())).
			Msg("audit found differences")
	}
	return report, nil
}

// catalogOnlyIDs returns the ids present in the catalog snapshot but absent
// from the source records, sorted.
func catalogOnlyIDs(catalog map[tags.EntityID]tags.Entity, records []tags.Record) []string {
	declared := make(map[tags.EntityID]bool, len(records))
	for _, rec := range records {
		declared[rec.ID()] = true
	}
	out := []string{}
	for id := range catalog {
		if !declared[id] {
			out = append(out, id.String())
		}
	}
	sort.Strings(out)
	return out
}

// sourceOnlyIDs returns the ids declared by the source records but absent
// from the catalog snapshot, sorted.
func sourceOnlyIDs(records []tags.Record, catalog map[tags.EntityID]tags.Entity) []string {
	out := []string{}
	for _, rec := range records {
		if _, ok := catalog[rec.ID()]; !ok {
			out = append(out, rec.ID().String())
		}
	}
	sort.Strings(out)
	return out
}

// entityDiffs compares tag sets for entities present on both sides, in
// source record order, keeping only entities whose sets differ.
func entityDiffs(records []tags.Record, catalog map[tags.EntityID]tags.Entity) []tags.EntityDiff {
	out := []tags.EntityDiff{}
	for _, rec := range records {
		entity, ok := catalog[rec.ID()]
		if !ok {
			continue
		}
		diff := tags.Compare(rec.Tags, entity.Tags)
		if diff.Empty() {
			continue
		}
		out = append(out, tags.EntityDiff{Entity: rec.ID(), Diff: diff})
	}
	return out
}
