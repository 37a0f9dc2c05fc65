// Package policy expands templated rule commands into concrete access
// policies and synchronizes them against a policy service.
//
// A rule file declares commands whose arguments may reference context
// placeholders like {table} or {project_name}. The Engine resolves every
// placeholder against a Context, fanning commands out over the run's table
// list where they reference per-table keys. The Syncer then reconciles the
// expanded policies against the service: it creates what is missing,
// updates what exists, and deletes owned policies that are no longer
// declared. Both stages are deterministic for a given input.
package policy

import "strings"

// Policy is a fully resolved access rule ready to send to the policy
// service. Field names follow the Ranger v2 public API, so the same struct
// is both the expansion output and the wire format.
type Policy struct {
	ID          int64               `json:"id,omitempty" yaml:"id,omitempty"`
	Service     string              `json:"service" yaml:"service"`
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	IsEnabled   bool                `json:"isEnabled" yaml:"isEnabled"`
	Resources   map[string]Resource `json:"resources" yaml:"resources"`
	PolicyItems []Item              `json:"policyItems,omitempty" yaml:"policyItems,omitempty"`
}

// Resource scopes a policy to service objects (databases, tables, columns).
type Resource struct {
	Values      []string `json:"values" yaml:"values"`
	IsExcludes  bool     `json:"isExcludes" yaml:"isExcludes"`
	IsRecursive bool     `json:"isRecursive" yaml:"isRecursive"`
}

// Item grants a set of accesses to users and groups.
type Item struct {
	Users         []string `json:"users,omitempty" yaml:"users,omitempty"`
	Groups        []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Accesses      []Access `json:"accesses" yaml:"accesses"`
	DelegateAdmin bool     `json:"delegateAdmin" yaml:"delegateAdmin"`
}

// Access names a single permission within a policy item.
type Access struct {
	Type      string `json:"type" yaml:"type"`
	IsAllowed bool   `json:"isAllowed" yaml:"isAllowed"`
}

// OwnedBy reports whether the policy name falls under any of the given
// name prefixes.
func (p Policy) OwnedBy(prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p.Name, prefix) {
			return true
		}
	}
	return false
}
