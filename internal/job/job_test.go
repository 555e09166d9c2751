package job

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkaive/internal/config"
	"arkaive/internal/errors"
)

func makeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func assertValidGzip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	_, err = bytes.NewBuffer(nil).ReadFrom(zr)
	require.NoError(t, err)
}

func TestRun_AllJobs(t *testing.T) {
	out := t.TempDir()
	t.Setenv("ARKAIVE_TEST_OUT", out)

	cfg := &config.Config{
		Archives: []config.Archive{
			{Name: "one", Input: makeSource(t, map[string]string{"a.txt": "a"}), Output: "$ARKAIVE_TEST_OUT"},
			{Name: "two", Input: makeSource(t, map[string]string{"b/c.txt": "c"}), Output: "${ARKAIVE_TEST_OUT}"},
		},
		Compression: config.CompressionConfig{Level: gzip.BestSpeed},
	}

	results, err := NewRunner(cfg, zerolog.Nop()).Run()
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(out, "one.tar.gz"), results[0].Path)
	assert.Equal(t, filepath.Join(out, "two.tar.gz"), results[1].Path)
	assertValidGzip(t, results[0].Path)
	assertValidGzip(t, results[1].Path)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	out := t.TempDir()

	cfg := &config.Config{
		Archives: []config.Archive{
			{Name: "first", Input: makeSource(t, map[string]string{"a.txt": "a"}), Output: out},
			{Name: "second", Input: filepath.Join(t.TempDir(), "missing"), Output: out},
			{Name: "third", Input: makeSource(t, map[string]string{"c.txt": "c"}), Output: out},
		},
		Compression: config.CompressionConfig{Level: gzip.DefaultCompression},
	}

	results, err := NewRunner(cfg, zerolog.Nop()).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindDirectoryRead))
	assert.Contains(t, err.Error(), `job "second"`)

	require.Len(t, results, 1)
	assertValidGzip(t, filepath.Join(out, "first.tar.gz"))

	_, statErr := os.Stat(filepath.Join(out, "second.tar.gz"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(out, "third.tar.gz"))
	assert.True(t, os.IsNotExist(statErr), "third job must not run")
}

func TestRun_EmptyArchives(t *testing.T) {
	cfg := &config.Config{Archives: []config.Archive{}}

	results, err := NewRunner(cfg, zerolog.Nop()).Run()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_AbsentArchives(t *testing.T) {
	cfg := &config.Config{}

	results, err := NewRunner(cfg, zerolog.Nop()).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindNoArchives))
	assert.Nil(t, results)
}

func TestRun_InvalidArchiveRunsNothing(t *testing.T) {
	out := t.TempDir()
	cfg := &config.Config{
		Archives: []config.Archive{
			{Name: "ok", Input: makeSource(t, map[string]string{"a.txt": "a"}), Output: out},
			{Name: "bad/name", Input: "/srv", Output: out},
		},
	}

	_, err := NewRunner(cfg, zerolog.Nop()).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindConfigInvalid))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_ExpansionFailure(t *testing.T) {
	cfg := &config.Config{
		Archives: []config.Archive{
			{Name: "x", Input: "$ARKAIVE_TEST_UNSET_VARIABLE/src", Output: t.TempDir()},
		},
	}

	_, err := NewRunner(cfg, zerolog.Nop()).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindPathExpansion))
	assert.Contains(t, err.Error(), `job "x"`)
}

func TestRun_LogsCarryRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	cfg := &config.Config{
		Archives: []config.Archive{
			{Name: "logged", Input: makeSource(t, map[string]string{"a.txt": "a"}), Output: t.TempDir()},
		},
	}

	_, err := NewRunner(cfg, logger).Run()
	require.NoError(t, err)

	var runID string
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var event map[string]any
		require.NoError(t, json.Unmarshal(line, &event))

		id, ok := event["run_id"].(string)
		require.True(t, ok, "missing run_id in %s", line)
		if runID == "" {
			runID = id
		}
		assert.Equal(t, runID, id)

		if event["message"] == "archive written" {
			assert.Equal(t, "logged", event["job"])
			assert.EqualValues(t, 1, event["entries"])
		}
	}
}
