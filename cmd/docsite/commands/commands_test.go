package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
)

func testGlobal() *Global {
	return &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestInitScaffoldsBuildableSite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, (&InitCmd{Dir: dir}).Run(testGlobal(), &CLI{}))

	for _, f := range []string{"docsite.yaml", "docs/cli.md", "sidebars.yaml", "src/css/custom.css", "src/pages/index.md", "static/img/logo.svg"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(f)))
	}

	root := &CLI{
		Config:    filepath.Join(dir, "docsite.yaml"),
		HistoryDB: filepath.Join(dir, ".docsite", "history.db"),
	}
	cmd := &BuildCmd{
		ObserverFlags: ObserverFlags{Concurrency: 4},
		Output:        "build",
		MetricsFile:   filepath.Join(dir, "metrics", "docsite.prom"),
	}
	require.NoError(t, cmd.Run(testGlobal(), root))

	out := filepath.Join(dir, "build")
	for _, f := range []string{"index.html", "docs/cli/index.html", "sitemap.xml", "manifest.json", "img/logo.svg"} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(f)))
	}

	metrics, err := os.ReadFile(cmd.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "docsite_build_outcomes_total")

	store, err := history.NewSQLiteStore(root.HistoryDB)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	entries, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "success", entries[0].Status)
	assert.Equal(t, out, entries[0].OutputDir)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, (&InitCmd{Dir: dir}).Run(testGlobal(), &CLI{}))

	err := (&InitCmd{Dir: dir}).Run(testGlobal(), &CLI{})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))

	require.NoError(t, (&InitCmd{Dir: dir, Force: true}).Run(testGlobal(), &CLI{}))
}

func TestWriteScaffoldKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "docs", "cli.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(custom), 0o750))
	require.NoError(t, os.WriteFile(custom, []byte("# Mine\n"), 0o600))

	written, err := writeScaffold(dir)
	require.NoError(t, err)
	assert.Equal(t, len(scaffold)-1, written)

	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "# Mine\n", string(data))
}

func TestBuildFailureReportsIssues(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "docsite.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`title: av_llm
url: https://x
baseUrl: /av_llm/
organizationName: avble
projectName: av_llm
plugins: [not-a-plugin]
`), 0o600))

	err := (&BuildCmd{ObserverFlags: ObserverFlags{Concurrency: 1}, Output: "build"}).Run(testGlobal(), &CLI{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, 3, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	var berr *build.Error
	require.ErrorAs(t, err, &berr)

	var buf bytes.Buffer
	writeIssues(&buf, &build.Result{BuildID: "b-1", Locale: "en"}, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "ResolvingPlugins", report["stage"])
	assert.Equal(t, "b-1", report["buildId"])
	issues, ok := report["issues"].([]any)
	require.True(t, ok)
	require.Len(t, issues, 1)
	assert.Equal(t, "plugins[0].name", issues[0].(map[string]any)["field"])

	assert.NoDirExists(t, filepath.Join(dir, "build"))
}

func TestWriteIssuesIgnoresOtherErrors(t *testing.T) {
	var buf bytes.Buffer
	writeIssues(&buf, nil, fmt.Errorf("plain"))
	assert.Empty(t, buf.String())
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.WriteExample(filepath.Join(dir, "docsite.yaml"), false))
	require.NoError(t, (&ValidateCmd{}).Run(testGlobal(), &CLI{Config: filepath.Join(dir, "docsite.yaml")}))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("title: x\n"), 0o600))
	err := (&ValidateCmd{}).Run(testGlobal(), &CLI{Config: bad})
	require.Error(t, err)
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestMissingConfigIsNotFound(t *testing.T) {
	t.Chdir(t.TempDir())
	_, _, err := (&CLI{}).loadDocument()
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))
}

func TestResolveOutput(t *testing.T) {
	assert.Equal(t, filepath.Join("/site", "build"), resolveOutput("/site", "build"))
	assert.Equal(t, "/srv/www", resolveOutput("/site", "/srv/www/"))
}

func TestRequireHistory(t *testing.T) {
	_, err := requireHistory(&CLI{})
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))

	_, err = requireHistory(&CLI{HistoryDB: filepath.Join(t.TempDir(), "missing.db")})
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))
}

func TestFailedResult(t *testing.T) {
	failed := &build.Result{Locale: "fr", Err: &build.Error{Stage: build.StateAssembling}}
	assert.Same(t, failed, failedResult([]*build.Result{{Locale: "en"}, failed}))
	assert.Nil(t, failedResult([]*build.Result{{Locale: "en"}, nil}))
}
