package ranger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformops/policytool/internal/transport"
	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/policy"
)

// fakeRanger serves the subset of the Ranger v2 public API the client uses.
type fakeRanger struct {
	policies []policy.Policy
	nextID   int64
	deleted  []int64
}

func (f *fakeRanger) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /service/public/v2/api/policy", func(w http.ResponseWriter, r *http.Request) {
		partial := r.URL.Query().Get("policyNamePartial")
		startIndex, _ := strconv.Atoi(r.URL.Query().Get("startIndex"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

		// Ranger matches the partial anywhere in the name.
		var matched []policy.Policy
		for _, p := range f.policies {
			if strings.Contains(p.Name, partial) {
				matched = append(matched, p)
			}
		}

		end := startIndex + pageSize
		if startIndex > len(matched) {
			startIndex = len(matched)
		}
		if end > len(matched) {
			end = len(matched)
		}
		page := matched[startIndex:end]
		if page == nil {
			page = []policy.Policy{}
		}
		json.NewEncoder(w).Encode(page) //nolint:errcheck
	})

	mux.HandleFunc("POST /service/public/v2/api/policy", func(w http.ResponseWriter, r *http.Request) {
		var p policy.Policy
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		p.ID = f.nextID
		f.policies = append(f.policies, p)
		json.NewEncoder(w).Encode(p) //nolint:errcheck
	})

	mux.HandleFunc("PUT /service/public/v2/api/policy/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var p policy.Policy
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i := range f.policies {
			if f.policies[i].ID == id {
				p.ID = id
				f.policies[i] = p
				json.NewEncoder(w).Encode(p) //nolint:errcheck
				return
			}
		}
		http.Error(w, "policy not found", http.StatusNotFound)
	})

	mux.HandleFunc("DELETE /service/public/v2/api/policy/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		for i := range f.policies {
			if f.policies[i].ID == id {
				f.policies = append(f.policies[:i], f.policies[i+1:]...)
				f.deleted = append(f.deleted, id)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, "policy not found", http.StatusNotFound)
	})

	return httptest.NewServer(mux)
}

func existing(id int64, name string) policy.Policy {
	return policy.Policy{ID: id, Service: "hive_prod", Name: name, IsEnabled: true}
}

func TestFindByPrefixRefilters(t *testing.T) {
	fake := &fakeRanger{
		policies: []policy.Policy{
			existing(1, "finance_prod_read"),
			existing(2, "finance_prod_write"),
			// Matches the partial search but not the prefix.
			existing(3, "legacy_finance_prod_read"),
			existing(4, "unrelated"),
		},
		nextID: 4,
	}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{})
	got, err := client.FindByPrefix(context.Background(), "finance_prod")
	require.NoError(t, err)

	require.Len(t, got, 2, "substring matches that are not prefix matches are dropped")
	assert.Equal(t, "finance_prod_read", got[0].Name)
	assert.Equal(t, "finance_prod_write", got[1].Name)
}

func TestFindByPrefixPaginates(t *testing.T) {
	fake := &fakeRanger{nextID: 100}
	for i := int64(1); i <= 5; i++ {
		fake.policies = append(fake.policies,
			existing(i, "finance_prod_"+strconv.FormatInt(i, 10)))
	}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{}, WithPageSize(2))
	got, err := client.FindByPrefix(context.Background(), "finance_prod")
	require.NoError(t, err)

	assert.Len(t, got, 5)
}

func TestFindByPrefixEmpty(t *testing.T) {
	fake := &fakeRanger{}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{})
	got, err := client.FindByPrefix(context.Background(), "finance_prod")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateAssignsID(t *testing.T) {
	fake := &fakeRanger{}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{})
	created, err := client.Create(context.Background(), policy.Policy{
		Service:   "hive_prod",
		Name:      "finance_prod_read",
		IsEnabled: true,
		PolicyItems: []policy.Item{{
			Groups:   []string{"analysts"},
			Accesses: []policy.Access{{Type: "select", IsAllowed: true}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	require.Len(t, fake.policies, 1)
	require.Len(t, fake.policies[0].PolicyItems, 1)
	assert.Equal(t, "select", fake.policies[0].PolicyItems[0].Accesses[0].Type)
}

func TestUpdateReplacesByID(t *testing.T) {
	fake := &fakeRanger{policies: []policy.Policy{existing(7, "finance_prod_read")}, nextID: 7}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{})
	p := existing(7, "finance_prod_read")
	p.Description = "updated"

	updated, err := client.Update(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, int64(7), updated.ID)
	assert.Equal(t, "updated", fake.policies[0].Description)
}

func TestUpdateRequiresID(t *testing.T) {
	client := New("http://ranger.invalid", &transport.NoAuth{})
	_, err := client.Update(context.Background(), policy.Policy{Name: "finance_prod_read"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy id required")
}

func TestDelete(t *testing.T) {
	fake := &fakeRanger{policies: []policy.Policy{existing(7, "finance_prod_read")}, nextID: 7}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{})
	err := client.Delete(context.Background(), existing(7, "finance_prod_read"))
	require.NoError(t, err)

	assert.Empty(t, fake.policies)
	assert.Equal(t, []int64{7}, fake.deleted)
}

func TestDeleteMissingPolicy(t *testing.T) {
	fake := &fakeRanger{}
	server := fake.server(t)
	defer server.Close()

	client := New(server.URL, &transport.NoAuth{})
	err := client.Delete(context.Background(), existing(9, "finance_prod_gone"))
	require.Error(t, err)
	assert.True(t, errors.IsCatalogUnavailable(err))

	var unavailable *errors.CatalogUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, http.StatusNotFound, unavailable.StatusCode)
	assert.Equal(t, "ranger", unavailable.Service)
}

func TestClientSendsCredentials(t *testing.T) {
	var gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewEncoder(w).Encode([]policy.Policy{}) //nolint:errcheck
	}))
	defer server.Close()

	client := New(server.URL, &transport.BasicAuth{Username: "svc_ranger", Password: "hunter2"})
	_, err := client.FindByPrefix(context.Background(), "finance_prod")
	require.NoError(t, err)

	assert.Equal(t, "svc_ranger", gotUser)
	assert.Equal(t, "hunter2", gotPass)
}
