package tags

import (
	"fmt"

	"github.com/agentstation/utc"
)

// Worklog is the ordered record of one sync invocation over one scope:
// per-entity outcomes plus the attempt count that produced them. It is
// created fresh per call, immutable once returned, and used only for
// reporting.
type Worklog struct {
	Scope    string      `json:"scope" yaml:"scope"` // "table" or "column"
	Entries  []WorkEntry `json:"entries" yaml:"entries"`
	Attempts int         `json:"attempts" yaml:"attempts"`
	Started  utc.Time    `json:"started" yaml:"started"`
	Finished utc.Time    `json:"finished" yaml:"finished"`
}

// WorkEntry is the outcome for a single entity within one sync invocation.
type WorkEntry struct {
	Entity EntityID `json:"entity" yaml:"entity"`
	Added  []string `json:"added,omitempty" yaml:"added,omitempty"`
	Failed []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// NewWorklog starts a worklog for the given scope, stamping the start time.
func NewWorklog(scope string) *Worklog {
	return &Worklog{
		Scope:   scope,
		Started: utc.Now(),
	}
}

// Record appends an entity outcome.
func (w *Worklog) Record(entity EntityID, added, failed []string) {
	w.Entries = append(w.Entries, WorkEntry{
		Entity: entity,
		Added:  added,
		Failed: failed,
	})
}

// Close stamps the finish time and returns the worklog for chaining.
func (w *Worklog) Close() *Worklog {
	w.Finished = utc.Now()
	return w
}

// Changes returns the total number of tags added across all entities.
func (w *Worklog) Changes() int {
	n := 0
	for _, e := range w.Entries {
		n += len(e.Added)
	}
	return n
}

// Failures returns the total number of tags that failed to push.
func (w *Worklog) Failures() int {
	n := 0
	for _, e := range w.Entries {
		n += len(e.Failed)
	}
	return n
}

// FailedEntities returns the ids of entities with at least one failed tag,
// in entry order.
func (w *Worklog) FailedEntities() []string {
	out := []string{}
	for _, e := range w.Entries {
		if len(e.Failed) > 0 {
			out = append(out, e.Entity.String())
		}
	}
	return out
}

// HasChanges reports whether any tag was added.
func (w *Worklog) HasChanges() bool {
	return w.Changes() > 0
}

// Summary returns a human-readable summary of the worklog.
func (w *Worklog) Summary() string {
	if w.Failures() > 0 {
		return fmt.Sprintf("%s scope: %d tags added, %d failed across %d entities (%d attempts)",
			w.Scope, w.Changes(), w.Failures(), len(w.Entries), w.Attempts)
	}
	if !w.HasChanges() {
		return fmt.Sprintf("%s scope: no changes", w.Scope)
	}
	return fmt.Sprintf("%s scope: %d tags added across %d entities", w.Scope, w.Changes(), len(w.Entries))
}
