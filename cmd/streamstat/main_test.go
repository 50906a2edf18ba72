package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/streamstat/pkg/history"
	"github.com/jingkaihe/streamstat/pkg/perf"
)

// execute runs the root command. Cobra keeps flag values between runs, so
// callers pass every flag they depend on.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	t.Setenv("STREAMSTAT_DEBUG_FILEIO", "")
	t.Setenv("STREAMSTAT_DEBUG_FILEIO_STACKSIZE", "")

	dir := t.TempDir()
	env := testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "history.db"),
	}
	content := fmt.Sprintf(`
logging:
  level: error
fileio:
  enabled: true
  threshold: 100
  roots:
    - name: dataroot
      path: %s
events:
  text: true
history:
  db_path: %s
%s`, filepath.Join(dir, "data"), env.db, extra)
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	return env
}

func (e testEnv) writeData(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.dir, "data", name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func listRuns(t *testing.T, env testEnv) []history.Run {
	t.Helper()
	stdout, _, err := execute(t, "history", "list", "--config", env.config, "-o", "json", "--limit", "0")
	require.NoError(t, err)
	var runs []history.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	return runs
}

func findRun(runs []history.Run, instrument string) (history.Run, bool) {
	for _, r := range runs {
		if r.Instrument == instrument {
			return r, true
		}
	}
	return history.Run{}, false
}

func TestCat_CopiesAndCounts(t *testing.T) {
	env := newTestEnv(t, "")
	content := bytes.Repeat([]byte("x"), 500)
	path := env.writeData(t, "a.txt", content)

	stdout, stderr, err := execute(t, "cat", "--config", env.config, "-o", "json", "--stats=false", "--caller", "test-run", path)
	require.NoError(t, err)

	assert.Equal(t, string(content), stdout)
	assert.Contains(t, stderr, "FILEIO [3] read "+path+" test-run ")
	assert.Contains(t, stderr, "FILEIO [5] bytes "+path+" test-run ")
	assert.Contains(t, stderr, "perf snapshot file")

	run, ok := findRun(listRuns(t, env), "file")
	require.True(t, ok)
	assert.Equal(t, uint64(1), run.Totals.Read)
	assert.Equal(t, uint64(500), run.Totals.Bytes)
	assert.Equal(t, 1, run.Snapshots)
}

func TestCat_Stats(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.writeData(t, "b.txt", []byte("hello"))

	_, stderr, err := execute(t, "cat", "--config", env.config, "-o", "table", "--stats", "--caller", "", path)
	require.NoError(t, err)

	assert.Contains(t, stderr, "INSTRUMENT")
	assert.Contains(t, stderr, "dataroot")
	assert.Contains(t, stderr, "FILEIO [3] read "+path+" bootstrap ")
}

func TestCat_MissingFile(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := execute(t, "cat", "--config", env.config, "-o", "json", "--stats=false", "--caller", "",
		filepath.Join(env.dir, "data", "missing.txt"))
	require.ErrorIs(t, err, ErrOpenStream)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStat_ReportsMissesWithoutFailing(t *testing.T) {
	env := newTestEnv(t, "")
	present := env.writeData(t, "present.txt", []byte("abc"))
	missing := filepath.Join(env.dir, "data", "missing.txt")

	stdout, _, err := execute(t, "stat", "--config", env.config, "-o", "json", "--caller", "", "--link=false", present, missing)
	require.NoError(t, err)

	var results []statResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Exists)
	assert.Equal(t, int64(3), results[0].Size)
	assert.False(t, results[1].Exists)

	stdout, _, err = execute(t, "history", "totals", "--config", env.config, "-o", "json", "--instrument", "file")
	require.NoError(t, err)
	var totals map[string]map[string]perf.Counters
	require.NoError(t, json.Unmarshal([]byte(stdout), &totals))
	assert.Equal(t, perf.Counters{Miss: 1, Stat: 1}, totals["file"]["dataroot"])
}

func TestProbe_HTTPRounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	env := newTestEnv(t, `
http:
  schemes: [http]
`)

	stdout, _, err := execute(t, "probe", "--config", env.config, "-o", "json",
		"--rounds", "2", "--interval", "10ms", "--concurrency", "2", "--caller", "probe", srv.URL+"/a")
	require.NoError(t, err)

	var stats map[string]map[string]perf.Counters
	require.NoError(t, json.Unmarshal([]byte(stdout), &stats))
	assert.Equal(t, perf.Counters{Read: 2, Bytes: 10}, stats["http"]["127.0.0.1"])

	run, ok := findRun(listRuns(t, env), "http")
	require.True(t, ok)
	assert.Equal(t, 2, run.Snapshots)
	assert.Equal(t, uint64(10), run.Totals.Bytes)
}

func TestProbe_RejectsBadInterval(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := execute(t, "probe", "--config", env.config, "-o", "json",
		"--rounds", "1", "--interval", "0s", "--caller", "probe", "/dev/null")
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestProbe_DocumentsSchemeSerialization(t *testing.T) {
	flag := probeCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "serialized")
	assert.Contains(t, probeCmd.Long, "https targets only overlap once their response headers arrive")
}

func TestHistory_RequiresDatabase(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("logging:\n  level: error\n"), 0o644))

	_, _, err := execute(t, "history", "list", "--config", config, "-o", "json", "--limit", "0")
	require.ErrorIs(t, err, ErrNoHistory)
}

func TestHistory_Prune(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.writeData(t, "c.txt", []byte("c"))
	for range 3 {
		_, _, err := execute(t, "cat", "--config", env.config, "-o", "json", "--stats=false", "--caller", "", path)
		require.NoError(t, err)
	}
	require.Len(t, listRuns(t, env), 6)

	stdout, _, err := execute(t, "history", "prune", "--config", env.config, "--keep", "1")
	require.NoError(t, err)
	assert.Equal(t, "Pruned 4 snapshots\n", stdout)
	assert.Len(t, listRuns(t, env), 2)
}

func TestOutputFormat_Invalid(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.writeData(t, "d.txt", []byte("d"))

	_, _, err := execute(t, "stat", "--config", env.config, "-o", "yaml", "--caller", "", "--link=false", path)
	require.ErrorIs(t, err, ErrOutputMode)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "streamstat dev "))
}
