package audit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/platformops/policytool"
	"github.com/platformops/policytool/internal/cmd/application"
	"github.com/platformops/policytool/pkg/constants"
	"github.com/platformops/policytool/pkg/policy"
	"github.com/platformops/policytool/pkg/tags"
)

// stubClient records the records handed to AuditTags and answers with a
// canned report.
type stubClient struct {
	tables  []tags.Record
	columns []tags.Record
	report  *policytool.AuditReport
	err     error
}

func (s *stubClient) SyncTags(context.Context, []tags.Record, []tags.Record) (*policytool.SyncResult, error) {
	return nil, nil
}

func (s *stubClient) AuditTags(_ context.Context, tables, columns []tags.Record) (*policytool.AuditReport, error) {
	s.tables = tables
	s.columns = columns
	return s.report, s.err
}

func (s *stubClient) ApplyPolicies(context.Context, []policy.Command, *policy.Context, []string) ([]policy.Action, error) {
	return nil, nil
}

func writeTagFiles(t *testing.T, dir string) {
	t.Helper()
	tables := "schema,table,tags\nsales,orders,pii\n"
	columns := "schema,table,attribute,tags\nsales,orders,card_number,pii\n"
	if err := os.WriteFile(filepath.Join(dir, constants.TableTagsFile), []byte(tables), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, constants.ColumnTagsFile), []byte(columns), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newMock(dir string, client policytool.Policytool) *application.Mock {
	return &application.Mock{
		SourceDirFunc:       func() string { return dir },
		EnvironmentNameFunc: func() string { return "prod" },
		ClientFunc: func() (policytool.Policytool, error) {
			return client, nil
		},
	}
}

func run(t *testing.T, mock *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(mock)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPrintsDifferenceLines(t *testing.T) {
	dir := t.TempDir()
	writeTagFiles(t, dir)
	client := &stubClient{report: &policytool.AuditReport{
		MissingTags:      []string{"prod"},
		SourceOnlyTables: []string{"sales.customers"},
	}}

	out, err := run(t, newMock(dir, client))
	if err != nil {
		t.Fatalf("differences must not fail the audit: %v", err)
	}
	if !strings.Contains(out, "Tag(s) missing in Atlas: prod") {
		t.Errorf("output %q missing the vocabulary line", out)
	}
	if !strings.Contains(out, "Tables only found in metadata schema: sales.customers") {
		t.Errorf("output %q missing the source-only table line", out)
	}
}

func TestCommandQuietWhenInAgreement(t *testing.T) {
	dir := t.TempDir()
	writeTagFiles(t, dir)
	client := &stubClient{report: &policytool.AuditReport{}}

	out, err := run(t, newMock(dir, client))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("agreeing audit should print nothing, got %q", out)
	}
}

func TestCommandStampsEnvironmentBeforeAudit(t *testing.T) {
	dir := t.TempDir()
	writeTagFiles(t, dir)
	client := &stubClient{report: &policytool.AuditReport{}}

	if _, err := run(t, newMock(dir, client)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.tables) != 1 {
		t.Fatalf("client saw %d table records, want 1", len(client.tables))
	}
	if !client.tables[0].Tags.Contains("prod") {
		t.Errorf("audit records not stamped with environment: %v", client.tables[0].Tags.Sorted())
	}
}

func TestCommandRequiresEnvironment(t *testing.T) {
	mock := newMock(t.TempDir(), &stubClient{})
	mock.EnvironmentNameFunc = func() string { return "" }

	_, err := run(t, mock)
	if err == nil {
		t.Fatal("expected an error without an environment")
	}
	if !strings.Contains(err.Error(), "environment is required") {
		t.Errorf("error = %v, want environment requirement", err)
	}
}

func TestCommandSkipsWhenSourceFilesMissing(t *testing.T) {
	client := &stubClient{report: &policytool.AuditReport{}}

	out, err := run(t, newMock(t.TempDir(), client))
	if err != nil {
		t.Fatalf("missing files must not fail the run: %v", err)
	}
	if !strings.Contains(out, "Will not run, exiting!") {
		t.Errorf("output %q missing the exit notice", out)
	}
	if client.tables != nil {
		t.Error("audit must not run when source files are missing")
	}
}

func TestCommandMarshalsReportWhenFormatRequested(t *testing.T) {
	dir := t.TempDir()
	writeTagFiles(t, dir)
	client := &stubClient{report: &policytool.AuditReport{
		MissingTags: []string{"prod"},
	}}

	mock := newMock(dir, client)
	mock.OutputFormatFunc = func() string { return "json" }

	out, err := run(t, mock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"missing_tags"`) {
		t.Errorf("json output %q missing the report field", out)
	}
}
