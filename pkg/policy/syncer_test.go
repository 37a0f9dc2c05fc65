package policy

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformops/policytool/pkg/errors"
)

// fakeStore is an in-memory policy store that records every mutation.
type fakeStore struct {
	policies map[string]Policy
	nextID   int64
	calls    []string
	failOn   string
}

func newFakeStore(existing ...Policy) *fakeStore {
	s := &fakeStore{policies: make(map[string]Policy), nextID: 100}
	for _, p := range existing {
		s.nextID++
		p.ID = s.nextID
		s.policies[p.Name] = p
	}
	return s
}

func (s *fakeStore) FindByPrefix(_ context.Context, prefix string) ([]Policy, error) {
	s.calls = append(s.calls, "find:"+prefix)
	var out []Policy
	for _, p := range s.policies {
		if len(p.Name) >= len(prefix) && p.Name[:len(prefix)] == prefix {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, p Policy) (Policy, error) {
	s.calls = append(s.calls, "create:"+p.Name)
	if p.Name == s.failOn {
		return Policy{}, fmt.Errorf("service rejected policy")
	}
	s.nextID++
	p.ID = s.nextID
	s.policies[p.Name] = p
	return p, nil
}

func (s *fakeStore) Update(_ context.Context, p Policy) (Policy, error) {
	s.calls = append(s.calls, "update:"+p.Name)
	if p.Name == s.failOn {
		return Policy{}, fmt.Errorf("service rejected policy")
	}
	s.policies[p.Name] = p
	return p, nil
}

func (s *fakeStore) Delete(_ context.Context, p Policy) error {
	s.calls = append(s.calls, "delete:"+p.Name)
	if p.Name == s.failOn {
		return fmt.Errorf("service rejected policy")
	}
	delete(s.policies, p.Name)
	return nil
}

func (s *fakeStore) mutations() []string {
	var out []string
	for _, call := range s.calls {
		if call[:5] != "find:" {
			out = append(out, call)
		}
	}
	return out
}

func named(name string) Policy {
	return Policy{Name: name, Service: "hive_prod", IsEnabled: true}
}

func TestSyncCreatesUpdatesAndDeletes(t *testing.T) {
	store := newFakeStore(
		named("finance_prod_stale_b"),
		named("finance_prod_keep"),
		named("finance_prod_stale_a"),
	)
	syncer := NewSyncer(store)

	actions, err := syncer.Sync(context.Background(), []string{"finance_prod"}, []Policy{
		named("finance_prod_new"),
		named("finance_prod_keep"),
	})
	require.NoError(t, err)

	require.Len(t, actions, 4)
	assert.Equal(t, Action{Op: ActionCreate, Name: "finance_prod_new"}, actions[0])
	assert.Equal(t, Action{Op: ActionUpdate, Name: "finance_prod_keep"}, actions[1])
	assert.Equal(t, Action{Op: ActionDelete, Name: "finance_prod_stale_a"}, actions[2],
		"deletes are sorted by name")
	assert.Equal(t, Action{Op: ActionDelete, Name: "finance_prod_stale_b"}, actions[3])

	assert.Equal(t, []string{
		"create:finance_prod_new",
		"update:finance_prod_keep",
		"delete:finance_prod_stale_a",
		"delete:finance_prod_stale_b",
	}, store.mutations())
}

func TestSyncUpdateCarriesRemoteID(t *testing.T) {
	store := newFakeStore(named("finance_prod_keep"))
	remoteID := store.policies["finance_prod_keep"].ID
	require.NotZero(t, remoteID)

	_, err := NewSyncer(store).Sync(context.Background(),
		[]string{"finance_prod"}, []Policy{named("finance_prod_keep")})
	require.NoError(t, err)

	assert.Equal(t, remoteID, store.policies["finance_prod_keep"].ID,
		"updates address the existing policy by its service id")
}

func TestSyncDryRunAppliesNothing(t *testing.T) {
	store := newFakeStore(named("finance_prod_stale"))
	syncer := NewSyncer(store, WithDryRun(true))

	actions, err := syncer.Sync(context.Background(), []string{"finance_prod"}, []Policy{
		named("finance_prod_new"),
	})
	require.NoError(t, err)

	require.Len(t, actions, 2, "dry run still reports the full plan")
	assert.Equal(t, Action{Op: ActionCreate, Name: "finance_prod_new"}, actions[0])
	assert.Equal(t, Action{Op: ActionDelete, Name: "finance_prod_stale"}, actions[1])

	assert.Empty(t, store.mutations(), "dry run must not touch the store")
	_, stillThere := store.policies["finance_prod_stale"]
	assert.True(t, stillThere)
}

func TestSyncIsIdempotent(t *testing.T) {
	store := newFakeStore()
	supplied := []Policy{named("finance_prod_a"), named("finance_prod_b")}

	first, err := NewSyncer(store).Sync(context.Background(), []string{"finance_prod"}, supplied)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, ActionCreate, first[0].Op)

	second, err := NewSyncer(store).Sync(context.Background(), []string{"finance_prod"}, supplied)
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, action := range second {
		assert.Equal(t, ActionUpdate, action.Op, "re-running converges to updates only")
	}
	assert.Len(t, store.policies, 2)
}

func TestSyncOverlappingPrefixesDeduplicate(t *testing.T) {
	store := newFakeStore(named("load_etl_orders"))
	syncer := NewSyncer(store)

	// Both prefixes match the same remote policy; it must be planned once.
	actions, err := syncer.Sync(context.Background(),
		[]string{"load_etl", "load_etl_orders"}, nil)
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, Action{Op: ActionDelete, Name: "load_etl_orders"}, actions[0])
}

func TestSyncOutOfPrefixPolicyStillApplies(t *testing.T) {
	store := newFakeStore()
	syncer := NewSyncer(store)

	actions, err := syncer.Sync(context.Background(), []string{"finance_prod"}, []Policy{
		named("rogue_policy"),
	})
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionCreate, actions[0].Op)
	_, created := store.policies["rogue_policy"]
	assert.True(t, created)
}

func TestSyncStopsAtFirstFailure(t *testing.T) {
	store := newFakeStore()
	store.failOn = "finance_prod_b"
	syncer := NewSyncer(store)

	applied, err := syncer.Sync(context.Background(), []string{"finance_prod"}, []Policy{
		named("finance_prod_a"),
		named("finance_prod_b"),
		named("finance_prod_c"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsSyncError(err))

	var syncErr *errors.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, []string{"finance_prod_b"}, syncErr.Entities)

	require.Len(t, applied, 1, "actions before the failure are reported")
	assert.Equal(t, "finance_prod_a", applied[0].Name)
	assert.NotContains(t, store.policies, "finance_prod_c",
		"nothing past the failure is applied")
}
