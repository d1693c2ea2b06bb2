package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"suitcraft.com/web/internal/contact"
)

type fakeInbox struct {
	msgs   []contact.Message
	err    error
	opts   contact.ListOptions
	closed bool
}

func (f *fakeInbox) List(_ context.Context, opts contact.ListOptions) ([]contact.Message, error) {
	f.opts = opts
	return f.msgs, f.err
}

func (f *fakeInbox) Close() error {
	f.closed = true
	return nil
}

func runCmd(t *testing.T, ib *fakeInbox, args ...string) (string, error) {
	t.Helper()
	var gotURL string
	cmd := newRootCmd(func(_ context.Context, url string) (inbox, error) {
		gotURL = url
		return ib, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--database-url", "postgres://inbox"}, args...))
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		require.Equal(t, "postgres://inbox", gotURL)
	}
	return out.String(), err
}

func sampleMessages() []contact.Message {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return []contact.Message{
		{ID: "01HXA", Name: "Jo Park", Email: "jo@example.com", Body: "Need a navy suit\nfor June", SubmittedAt: at, RemoteIP: "203.0.113.7"},
		{ID: "01HXB", Name: "Sam", Email: "sam@example.com", Body: "Alterations?", SubmittedAt: at.Add(-time.Hour)},
	}
}

func TestListPrintsTable(t *testing.T) {
	ib := &fakeInbox{msgs: sampleMessages()}
	out, err := runCmd(t, ib, "list", "--limit", "10", "--since", "2024-04-01T00:00:00Z")
	require.NoError(t, err)
	require.Contains(t, out, "SUBMITTED")
	require.Contains(t, out, "Jo Park")
	require.Contains(t, out, "Need a navy suit")
	require.NotContains(t, out, "for June")
	require.Equal(t, 10, ib.opts.Limit)
	require.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), ib.opts.Since)
	require.True(t, ib.closed)
}

func TestListEmptyInbox(t *testing.T) {
	out, err := runCmd(t, &fakeInbox{}, "list")
	require.NoError(t, err)
	require.Contains(t, out, "no messages")
}

func TestListSurfacesErrors(t *testing.T) {
	_, err := runCmd(t, &fakeInbox{err: errors.New("boom")}, "list")
	require.ErrorContains(t, err, "boom")
}

func TestRejectsBadSince(t *testing.T) {
	_, err := runCmd(t, &fakeInbox{}, "list", "--since", "yesterday")
	require.ErrorContains(t, err, "RFC3339")
}

func TestExportWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.xlsx")
	ib := &fakeInbox{msgs: sampleMessages()}
	out, err := runCmd(t, ib, "export", "--out", path)
	require.NoError(t, err)
	require.Contains(t, out, "exported 2 messages")
	require.Equal(t, exportLimit, ib.opts.Limit)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, exportHeaders, rows[0])
	require.Equal(t, "01HXA", rows[1][0])
	require.Equal(t, "2024-05-01T09:30:00Z", rows[1][1])
	require.Equal(t, "Need a navy suit\nfor June", rows[1][4])
	require.Equal(t, "203.0.113.7", rows[1][5])
}

func TestExportRequiresOut(t *testing.T) {
	_, err := runCmd(t, &fakeInbox{}, "export")
	require.Error(t, err)
}

func TestPreview(t *testing.T) {
	require.Equal(t, "hello", preview("  hello  \nworld", 10))
	require.Equal(t, "abcd…", preview("abcdefgh", 5))
}
