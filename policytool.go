// Package policytool reconciles source-declared metadata tags against a
// metadata catalog and applies templated access policies to a policy
// service.
//
// The package exposes one high-level interface built from two engines: a tag
// reconciler that computes set differences between source files and the
// catalog and pushes convergence with bounded retry, and a policy pipeline
// that expands rule commands against a run context and synchronizes the
// result by name prefix. All state is derived per run; nothing is persisted
// between invocations.
//
// Example usage:
//
//	pt, err := policytool.New(
//	    policytool.WithCatalog(atlasClient),
//	    policytool.WithPolicyStore(rangerClient),
//	    policytool.WithRetryBudget(2*cfg.Retries),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := pt.SyncTags(ctx, tableRecords, columnRecords)
package policytool

import (
	"context"

	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/policy"
	"github.com/platformops/policytool/pkg/tags"
)

// Catalog is the metadata catalog the tag engine reconciles against. Reads
// return snapshots keyed by entity id; pushes associate only the tags an
// entity is missing, so repeating a push is safe.
type Catalog interface {
	// Classifications returns the catalog's global tag vocabulary.
	Classifications(ctx context.Context) (tags.Set, error)

	// Tables returns the catalog's tables for the given schemas.
	Tables(ctx context.Context, schemas []string) (map[tags.EntityID]tags.Entity, error)

	// Columns returns the catalog's columns for the given tables.
	Columns(ctx context.Context, tables []tags.EntityID) (map[tags.EntityID]tags.Entity, error)

	// PushTableTags converges table entities toward the records' tag sets.
	PushTableTags(ctx context.Context, records []tags.Record) ([]tags.WorkEntry, error)

	// PushColumnTags converges column entities toward the records' tag sets.
	PushColumnTags(ctx context.Context, records []tags.Record) ([]tags.WorkEntry, error)
}

// Policytool is the high-level entry point used by the CLI commands.
type Policytool interface {
	// SyncTags pushes source-declared tags to the catalog, tables before
	// columns. Records must already carry the run's environment tag.
	SyncTags(ctx context.Context, tables, columns []tags.Record) (*SyncResult, error)

	// AuditTags reports every difference between the source records and the
	// catalog without writing anything.
	AuditTags(ctx context.Context, tables, columns []tags.Record) (*AuditReport, error)

	// ApplyPolicies expands the rule commands against the context and
	// reconciles the result with the policy service under the given name
	// prefixes. In dry-run mode the returned actions are planned, not
	// applied.
	ApplyPolicies(ctx context.Context, commands []policy.Command, pctx *policy.Context, prefixes []string) ([]policy.Action, error)
}

// policytool is the internal implementation of the Policytool interface.
type policytool struct {
	config     *config
	reconciler *Reconciler
}

// New creates a Policytool instance with the given options. Each operation
// validates the collaborators it needs, so a catalog-only instance can still
// serve policy commands and vice versa.
func New(opts ...Option) (Policytool, error) {
	pt := &policytool{config: defaultOptions()}
	for _, opt := range opts {
		if err := opt(pt.config); err != nil {
			return nil, err
		}
	}

	if pt.config.catalog != nil {
		retry := NewRetryingSyncer(pt.config.retryBudget, pt.config.retryDelay,
			WithRetrySleep(pt.config.sleep),
			WithRetryLogger(pt.config.logger),
		)
		pt.reconciler = NewReconciler(pt.config.catalog, retry,
			WithReconcilerLogger(pt.config.logger))
	}
	return pt, nil
}

// SyncTags implements the Policytool interface.
func (p *policytool) SyncTags(ctx context.Context, tables, columns []tags.Record) (*SyncResult, error) {
	if p.reconciler == nil {
		return nil, errors.NewConfigError("policytool", "no catalog configured", nil)
	}
	return p.reconciler.Sync(ctx, tables, columns)
}

// AuditTags implements the Policytool interface.
func (p *policytool) AuditTags(ctx context.Context, tables, columns []tags.Record) (*AuditReport, error) {
	if p.reconciler == nil {
		return nil, errors.NewConfigError("policytool", "no catalog configured", nil)
	}
	return p.reconciler.Audit(ctx, tables, columns)
}

// ApplyPolicies implements the Policytool interface.
func (p *policytool) ApplyPolicies(ctx context.Context, commands []policy.Command, pctx *policy.Context, prefixes []string) ([]policy.Action, error) {
	if p.config.store == nil {
		return nil, errors.NewConfigError("policytool", "no policy store configured", nil)
	}

	engine := policy.NewEngine(policy.WithEngineLogger(p.config.logger))
	policies, err := engine.Expand(commands, pctx)
	if err != nil {
		return nil, err
	}

	syncer := policy.NewSyncer(p.config.store,
		policy.WithDryRun(p.config.dryRun),
		policy.WithLogger(p.config.logger),
	)
	return syncer.Sync(ctx, prefixes, policies)
}
