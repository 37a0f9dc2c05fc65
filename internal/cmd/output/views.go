package output

import (
	"strings"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/pkg/policy"
	"github.com/platformops/policytool/pkg/tags"
)

// SyncResultData flattens a sync result into one row per entity outcome,
// table scope first.
func SyncResultData(result *policytool.SyncResult) Data {
	data := Data{Headers: []string{"scope", "entity", "added", "failed"}}
	appendWorklog(&data, result.Tables)
	appendWorklog(&data, result.Columns)
	return data
}

func appendWorklog(data *Data, worklog *tags.Worklog) {
	if worklog == nil {
		return
	}
	for _, entry := range worklog.Entries {
		data.Rows = append(data.Rows, []string{
			worklog.Scope,
			entry.Entity.String(),
			strings.Join(entry.Added, ", "),
			strings.Join(entry.Failed, ", "),
		})
	}
}

// ActionsData lists planned or applied policy actions in execution order.
func ActionsData(actions []policy.Action) Data {
	data := Data{Headers: []string{"action", "policy"}}
	for _, action := range actions {
		data.Rows = append(data.Rows, []string{string(action.Op), action.Name})
	}
	return data
}
