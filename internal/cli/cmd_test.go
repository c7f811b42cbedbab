package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dori/gtdsync/internal/cli/formatter"
	"github.com/dori/gtdsync/internal/config"
	"github.com/dori/gtdsync/internal/model"
	"github.com/dori/gtdsync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"
)

// testConfig points the CLI at a fresh data directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	return cfg
}

// gtd runs one command line and returns its stdout.
func gtd(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), cfg, args, &out, &errOut)
	return out.String(), err
}

func mustGTD(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := gtd(t, cfg, args...)
	require.NoError(t, err, "gtdsync %s", strings.Join(args, " "))
	return out
}

func exported(t *testing.T, cfg *config.Config) *model.Document {
	t.Helper()
	doc, err := store.Parse(mustGTD(t, cfg, "export"))
	require.NoError(t, err)
	return doc
}

func findTask(t *testing.T, doc *model.Document, title string) model.Task {
	t.Helper()
	for _, task := range doc.Tasks {
		if task.Title == title {
			return task
		}
	}
	require.Failf(t, "task not found", "%q", title)
	return model.Task{}
}

func TestAdd_QuickAddSyntax(t *testing.T) {
	cfg := testConfig(t)

	out := mustGTD(t, cfg, "add", "Call", "Bob", "@phone", "!high", "due:2099-01-02")
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, "Call Bob")

	doc := exported(t, cfg)
	task := findTask(t, doc, "Call Bob")
	assert.Equal(t, model.StatusInbox, task.Status)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	require.Len(t, doc.Tags, 1)
	assert.Equal(t, "phone", doc.Tags[0].Name)
	assert.Equal(t, []string{doc.Tags[0].ID}, task.TagIDs)

	list := mustGTD(t, cfg, "tag", "list")
	assert.Contains(t, list, "@phone")
}

func TestAdd_ReusesExistingTag(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "tag", "add", "@Home")
	mustGTD(t, cfg, "add", "Fix sink @home")

	doc := exported(t, cfg)
	assert.Len(t, doc.Tags, 1)
}

func TestList_Views(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "add", "Sort mail")
	mustGTD(t, cfg, "add", "Plan trip", "--status", "someday")

	inbox := mustGTD(t, cfg, "list", "inbox")
	assert.Contains(t, inbox, "Sort mail")
	assert.NotContains(t, inbox, "Plan trip")

	someday := mustGTD(t, cfg, "list", "someday")
	assert.Contains(t, someday, "Plan trip")

	found := mustGTD(t, cfg, "list", "--search", "TRIP")
	assert.Contains(t, found, "Plan trip")
	assert.NotContains(t, found, "Sort mail")

	_, err := gtd(t, cfg, "list", "later")
	assert.ErrorContains(t, err, "unknown view")
}

func TestList_OrdersByPriority(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "add", "Low chore", "!low")
	mustGTD(t, cfg, "add", "Plain chore")
	mustGTD(t, cfg, "add", "Urgent chore", "!high")
	mustGTD(t, cfg, "add", "Finished chore", "!high")
	mustGTD(t, cfg, "done", findTask(t, exported(t, cfg), "Finished chore").ID)

	out := mustGTD(t, cfg, "list", "all")
	urgent := strings.Index(out, "Urgent chore")
	low := strings.Index(out, "Low chore")
	plain := strings.Index(out, "Plain chore")
	finished := strings.Index(out, "Finished chore")
	require.True(t, urgent >= 0 && low >= 0 && plain >= 0 && finished >= 0, out)
	assert.Less(t, urgent, low)
	assert.Less(t, low, plain)
	assert.Less(t, plain, finished)
}

func TestDoneUndoByShortID(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "add", "Pay rent")
	id := formatter.ShortID(findTask(t, exported(t, cfg), "Pay rent").ID)

	mustGTD(t, cfg, "done", id)
	task := findTask(t, exported(t, cfg), "Pay rent")
	assert.True(t, task.Completed)
	assert.NotNil(t, task.CompletedAt)
	assert.Contains(t, mustGTD(t, cfg, "list", "completed"), "Pay rent")
	assert.NotContains(t, mustGTD(t, cfg, "list"), "Pay rent")

	mustGTD(t, cfg, "undo", id)
	task = findTask(t, exported(t, cfg), "Pay rent")
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

func TestEdit_DueDatePromotesInboxTask(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "add", "Book dentist")
	id := findTask(t, exported(t, cfg), "Book dentist").ID

	out := mustGTD(t, cfg, "edit", id, "--due", "2099-03-01")
	assert.Contains(t, out, "(next)")

	task := findTask(t, exported(t, cfg), "Book dentist")
	assert.Equal(t, model.StatusNext, task.Status)
	require.NotNil(t, task.DueDate)

	mustGTD(t, cfg, "edit", id, "--due", "none", "--tag", "health")
	task = findTask(t, exported(t, cfg), "Book dentist")
	assert.Nil(t, task.DueDate)
	assert.Equal(t, model.StatusNext, task.Status)
	assert.Len(t, task.TagIDs, 1)

	mustGTD(t, cfg, "edit", id, "--tag", "health")
	task = findTask(t, exported(t, cfg), "Book dentist")
	assert.Empty(t, task.TagIDs)

	_, err := gtd(t, cfg, "edit", id, "--due", "someday-ish")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestProjects(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "project", "add", "Garden", "--goal", "Grow tomatoes")
	mustGTD(t, cfg, "add", "Buy seeds", "--project", "garden")

	list := mustGTD(t, cfg, "project", "list")
	assert.Contains(t, list, "Garden")
	assert.Contains(t, list, "1 open")

	mustGTD(t, cfg, "project", "archive", "Garden")
	assert.NotContains(t, mustGTD(t, cfg, "project", "list"), "Garden")
	assert.Contains(t, mustGTD(t, cfg, "project", "archived"), "Garden")
	mustGTD(t, cfg, "project", "unarchive", "Garden")

	mustGTD(t, cfg, "project", "rm", "Garden")
	doc := exported(t, cfg)
	assert.Empty(t, doc.Projects)
	assert.Nil(t, findTask(t, doc, "Buy seeds").ProjectID, "task survives with its project cleared")
}

func TestTags_RemoveDetachesFromTasks(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "add", "Water plants @home")
	mustGTD(t, cfg, "tag", "edit", "home", "--name", "house")
	assert.Contains(t, mustGTD(t, cfg, "tag", "list"), "@house")

	mustGTD(t, cfg, "tag", "rm", "@house")
	doc := exported(t, cfg)
	assert.Empty(t, doc.Tags)
	assert.Empty(t, findTask(t, doc, "Water plants").TagIDs)
}

func TestImportExportReset(t *testing.T) {
	cfg := testConfig(t)
	mustGTD(t, cfg, "add", "Keep me")
	path := filepath.Join(t.TempDir(), "backup.json")
	mustGTD(t, cfg, "export", path)

	_, err := gtd(t, cfg, "reset")
	assert.ErrorContains(t, err, "--yes")

	mustGTD(t, cfg, "reset", "--yes")
	assert.Empty(t, exported(t, cfg).Tasks)

	mustGTD(t, cfg, "import", path)
	findTask(t, exported(t, cfg), "Keep me")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tasks": []}`), 0644))
	_, err = gtd(t, cfg, "import", bad)
	assert.ErrorIs(t, err, model.ErrValidation)
	findTask(t, exported(t, cfg), "Keep me")
}

func TestSync_AgainstWebDAVServer(t *testing.T) {
	dav := &webdav.Handler{
		Prefix:     "/remote.php/dav/files/alice",
		FileSystem: webdav.NewMemFS(),
		LockSystem: webdav.NewMemLS(),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "alice" || pass != "s3cret" {
			w.Header().Set("WWW-Authenticate", `Basic realm="test"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		dav.ServeHTTP(w, r)
	}))
	defer srv.Close()

	laptop := testConfig(t)
	phone := testConfig(t)

	out, err := gtd(t, laptop, "sync")
	assert.ErrorContains(t, err, "not configured")
	assert.Empty(t, out)

	_, err = gtd(t, laptop, "sync", "configure", "--url", srv.URL, "--user", "alice", "--password", "nope")
	assert.ErrorIs(t, err, model.ErrConnection)

	t.Setenv("GTDSYNC_WEBDAV_PASSWORD", "s3cret")
	for _, cfg := range []*config.Config{laptop, phone} {
		out := mustGTD(t, cfg, "sync", "configure", "--url", srv.URL, "--user", "alice")
		assert.Contains(t, out, "/remote.php/dav/files/alice")
	}

	mustGTD(t, laptop, "add", "Shared task")
	assert.Contains(t, mustGTD(t, laptop, "sync"), "Initial upload")
	assert.Contains(t, mustGTD(t, phone, "sync", "pull"), "Pulled")
	findTask(t, exported(t, phone), "Shared task")

	status := mustGTD(t, phone, "sync", "status")
	assert.Contains(t, status, "alice")
	assert.NotContains(t, status, "s3cret")

	mustGTD(t, phone, "sync", "disconnect")
	assert.Contains(t, mustGTD(t, phone, "sync", "status"), "not configured")
	findTask(t, exported(t, phone), "Shared task")
}
