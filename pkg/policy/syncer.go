package policy

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/logging"
)

// Store is the policy service the syncer reconciles against.
type Store interface {
	// FindByPrefix returns every policy whose name starts with prefix.
	FindByPrefix(ctx context.Context, prefix string) ([]Policy, error)

	// Create adds a new policy and returns it with its service-assigned id.
	Create(ctx context.Context, p Policy) (Policy, error)

	// Update replaces the policy identified by p.ID.
	Update(ctx context.Context, p Policy) (Policy, error)

	// Delete removes the policy identified by p.ID.
	Delete(ctx context.Context, p Policy) error
}

// ActionOp is the kind of change the syncer applies to the store.
type ActionOp string

// Action operations, in the order a plan applies them.
const (
	ActionCreate ActionOp = "create"
	ActionUpdate ActionOp = "update"
	ActionDelete ActionOp = "delete"
)

// Action is one planned or applied change, identified by policy name.
type Action struct {
	Op   ActionOp `json:"op" yaml:"op"`
	Name string   `json:"name" yaml:"name"`
}

// Syncer reconciles expanded policies against a policy store. The run is
// scoped by name prefixes: only remote policies under a run prefix are
// considered owned, and only owned policies are ever deleted.
type Syncer struct {
	store  Store
	dryRun bool
	logger *zerolog.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithDryRun makes Sync return the planned actions without applying any of
// them.
func WithDryRun(dryRun bool) SyncerOption {
	return func(s *Syncer) {
		s.dryRun = dryRun
	}
}

// WithLogger sets the logger applied actions are reported on.
func WithLogger(logger *zerolog.Logger) SyncerOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// NewSyncer creates a syncer backed by store.
func NewSyncer(store Store, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store:  store,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync reconciles policies against the store and returns the actions taken.
// Supplied policies are created or updated in their given order; owned
// remote policies absent from the run are deleted afterwards, sorted by
// name. In dry-run mode the full plan is returned with no store calls beyond
// the initial fetch. Applying the same policies twice yields an update-only
// plan the second time, so the operation is safe to re-run.
func (s *Syncer) Sync(ctx context.Context, prefixes []string, policies []Policy) ([]Action, error) {
	owned, err := s.fetchOwned(ctx, prefixes)
	if err != nil {
		return nil, err
	}

	plan := s.plan(prefixes, policies, owned)
	if s.dryRun {
		s.logger.Info().Int("actions", len(plan)).Msg("dry run, no changes applied")
		actions := make([]Action, 0, len(plan))
		for _, step := range plan {
			actions = append(actions, step.action)
		}
		return actions, nil
	}

	return s.apply(ctx, plan)
}

// step pairs a planned action with the policy payload it operates on.
type step struct {
	action Action
	policy Policy
}

// fetchOwned collects the remote policies under the run prefixes, deduplicated
// by name so overlapping prefixes do not double-count.
func (s *Syncer) fetchOwned(ctx context.Context, prefixes []string) (map[string]Policy, error) {
	owned := make(map[string]Policy)
	for _, prefix := range prefixes {
		remote, err := s.store.FindByPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, p := range remote {
			owned[p.Name] = p
		}
	}
	return owned, nil
}

// plan computes the full action list for one run. Creates and updates keep
// the supplied policy order; deletes follow, sorted by name.
func (s *Syncer) plan(prefixes []string, policies []Policy, owned map[string]Policy) []step {
	plan := make([]step, 0, len(policies))
	supplied := make(map[string]bool, len(policies))

	for _, p := range policies {
		supplied[p.Name] = true
		if !p.OwnedBy(prefixes) {
			s.logger.Warn().
				Str("policy", p.Name).
				Strs("prefixes", prefixes).
				Msg("policy name does not match any run prefix")
		}
		if remote, ok := owned[p.Name]; ok {
			p.ID = remote.ID
			plan = append(plan, step{action: Action{Op: ActionUpdate, Name: p.Name}, policy: p})
		} else {
			plan = append(plan, step{action: Action{Op: ActionCreate, Name: p.Name}, policy: p})
		}
	}

	stale := make([]string, 0, len(owned))
	for name := range owned {
		if !supplied[name] {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	for _, name := range stale {
		plan = append(plan, step{action: Action{Op: ActionDelete, Name: name}, policy: owned[name]})
	}
	return plan
}

// apply executes a plan against the store, stopping at the first failure.
// The actions applied so far are returned alongside the error so callers can
// report partial progress.
func (s *Syncer) apply(ctx context.Context, plan []step) ([]Action, error) {
	applied := make([]Action, 0, len(plan))
	for _, st := range plan {
		var err error
		switch st.action.Op {
		case ActionCreate:
			_, err = s.store.Create(ctx, st.policy)
		case ActionUpdate:
			_, err = s.store.Update(ctx, st.policy)
		case ActionDelete:
			err = s.store.Delete(ctx, st.policy)
		}
		if err != nil {
			return applied, errors.NewSyncError("policy", []string{st.action.Name}, err)
		}
		applied = append(applied, st.action)
		s.logger.Debug().
			Str("op", string(st.action.Op)).
			Str("policy", st.action.Name).
			Msg("applied policy action")
	}
	return applied, nil
}
