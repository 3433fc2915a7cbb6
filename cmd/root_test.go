package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/bolthelper/cmd/util"
	"github.com/ValentinKolb/bolthelper/lib/codec"
	storetesting "github.com/ValentinKolb/bolthelper/lib/store/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = Run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// runOK runs a command that must succeed and decodes its result into v
func runOK(t *testing.T, v any, args ...string) {
	t.Helper()
	code, stdout, stderr := run(args...)
	require.Equal(t, 0, code, "stderr: %s", stderr)
	require.Empty(t, stderr)
	require.Equal(t, 1, strings.Count(stdout, "\n"), "expected a single JSON line, got %q", stdout)
	if v != nil {
		require.NoError(t, codec.NewJSONSerializer(false).Deserialize([]byte(stdout), v))
	}
}

// runFail runs a command that must fail with the given exit code
func runFail(t *testing.T, exitCode int, codeName string, args ...string) {
	t.Helper()
	code, stdout, stderr := run(args...)
	assert.Equal(t, exitCode, code, "stderr: %s", stderr)
	assert.Empty(t, stdout)
	assert.True(t, strings.HasPrefix(stderr, "error: "+codeName+": "), "unexpected stderr %q", stderr)
	assert.Equal(t, 1, strings.Count(stderr, "\n"))
}

func b64(s string) string {
	return codec.EncodeBytes([]byte(s))
}

func unb64(t *testing.T, s string) string {
	t.Helper()
	b, err := codec.DecodeBytes(s)
	require.NoError(t, err)
	return string(b)
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

func TestVersion(t *testing.T) {
	var v codec.VersionResult
	runOK(t, &v, "version")
	assert.Equal(t, Version, v.Version)
	assert.Equal(t, Protocol, v.Protocol)
}

func TestInvalidInvocations(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{}})

	runFail(t, 2, "InvalidArgument")
	runFail(t, 2, "InvalidArgument", "frobnicate")
	runFail(t, 2, "InvalidArgument", "lsk", "--db", path, "--bogus")
	runFail(t, 2, "InvalidArgument", "lsk", "--db", path)
	runFail(t, 2, "InvalidArgument", "lsk", "--path", "a")
	runFail(t, 2, "InvalidArgument", "lsk", "--db", path, "--path", "a", "--limit", "0")
	runFail(t, 2, "InvalidArgument", "lsk", "--db", path, "--path", "a", "--after-key", "%%%")
	runFail(t, 2, "InvalidArgument", "lsk", "--db", path, "--path", "a//b")
	runFail(t, 2, "InvalidArgument", "meta", "--db", path, "--log-level", "loud")
	runFail(t, 2, "InvalidArgument", "meta", "--db", path, "--timeout", "-1s")
}

func TestNormalizeArgs(t *testing.T) {
	root := newRootCommand(util.NewEnv(io.Discard, io.Discard))

	got := normalizeArgs(root, []string{"search", "--db", "x.db", "-case-sensitive", "--query", "-limit", "-limit", "5"})
	assert.Equal(t, []string{"search", "--db", "x.db", "--case-sensitive", "--query", "-limit", "--limit", "5"}, got)

	got = normalizeArgs(root, []string{"get", "-db=x.db", "-n", "10", "-h"})
	assert.Equal(t, []string{"get", "--db=x.db", "--n", "10", "-h"}, got)

	got = normalizeArgs(root, []string{"lsk", "--", "-path"})
	assert.Equal(t, []string{"lsk", "--", "-path"}, got)
}

func TestConfigFromEnvironment(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{}})
	t.Setenv("BOLTHELPER_DB", path)
	t.Setenv("BOLTHELPER_PRETTY", "true")

	code, stdout, stderr := run("meta")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "\n  \"rootBuckets\": 1")
}

func TestCommandFlagsFromEnvironment(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.NumberedKeys("k", 5)})
	t.Setenv("BOLTHELPER_DB", path)
	t.Setenv("BOLTHELPER_PATH", "a")
	t.Setenv("BOLTHELPER_LIMIT", "2")

	var page codec.KeyList
	runOK(t, &page, "lsk")
	assert.Len(t, page.Items, 2)

	// flags take precedence over the environment
	runOK(t, &page, "lsk", "--limit", "4")
	assert.Len(t, page.Items, 4)

	t.Setenv("BOLTHELPER_LIMIT", "many")
	runFail(t, 2, "InvalidArgument", "lsk")

	t.Setenv("BOLTHELPER_QUERY", "k")
	t.Setenv("BOLTHELPER_LIMIT", "3")
	var result codec.SearchResult
	runOK(t, &result, "search")
	assert.Len(t, result.Items, 3)
	assert.True(t, result.Limited)
}

func TestRequiredFlags(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{}})

	code, _, stderr := run("lsk", "--db", path)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `required flag(s) "path" not set`)

	code, _, stderr = run("get", "--db", path, "--path", "a")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `"key", "mode"`)

	runFail(t, 2, "InvalidArgument", "write", "--db", path, "--path", "a")
	runFail(t, 2, "InvalidArgument", "search", "--db", path, "--query", "a")
	runFail(t, 2, "InvalidArgument", "export", "--db", path)
}

func TestMetricsOut(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.NumberedKeys("k", 3)})
	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")

	runOK(t, nil, "lsk", "--db", path, "--path", "a", "--metrics-out", metricsFile)
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bolthelper_command_duration_seconds_count{command="lsk"} 1`)
	assert.Contains(t, string(data), `bolthelper_items_returned_total{op="lsk"} 3`)

	code, _, _ := run("lsk", "--db", path, "--path", "missing", "--metrics-out", metricsFile)
	require.Equal(t, 3, code)
	data, err = os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bolthelper_errors_total{command="lsk",code="PathNotFound"} 1`)
}

// --------------------------------------------------------------------------
// Read-only commands
// --------------------------------------------------------------------------

func TestMeta(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{}, "b": storetesting.Tree{}})

	var meta codec.MetaResult
	runOK(t, &meta, "meta", "--db", path)
	assert.Equal(t, path, meta.Path)
	assert.Equal(t, 2, meta.RootBuckets)
	assert.True(t, meta.Valid)
	assert.True(t, meta.ReadOnly)
	assert.NotEmpty(t, meta.SizeHuman)

	runFail(t, 9, "IOError", "meta", "--db", filepath.Join(t.TempDir(), "missing.db"))
}

func TestLsb(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{
		"a": storetesting.Tree{"x": storetesting.Tree{}, "k": "v", "y": storetesting.Tree{}},
	})

	var list codec.BucketList
	runOK(t, &list, "lsb", "--db", path, "--path", "a")
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "x", list.Items[0].Name)
	assert.Equal(t, b64("y"), list.Items[1].NameBase64)

	runOK(t, &list, "lsb", "--db", path, "--path", "")
	assert.Equal(t, 1, list.Total)

	runFail(t, 4, "NotABucket", "lsb", "--db", path, "--path", "a/k")
}

func TestLskPagination(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{
		"a": storetesting.Tree{"k1": "v1", "k2": "v2", "k3": "v3", "k4": "v4", "k5": "v5"},
	})

	var page codec.KeyList
	runOK(t, &page, "lsk", "--db", path, "--path", "a", "--limit", "2")
	require.Len(t, page.Items, 2)
	assert.Equal(t, "k1", unb64(t, page.Items[0].KeyBase64))
	assert.Equal(t, 2, page.Items[0].ValueSize)
	assert.Equal(t, 2, page.ApproxReturned)
	require.NotNil(t, page.NextAfterKey)
	assert.Equal(t, "k2", unb64(t, *page.NextAfterKey))

	var seen []string
	after := ""
	for {
		page = codec.KeyList{}
		runOK(t, &page, "lsk", "--db", path, "--path", "/a/", "--limit", "2", "--after-key", after)
		for _, item := range page.Items {
			seen = append(seen, unb64(t, item.KeyBase64))
		}
		if page.NextAfterKey == nil {
			break
		}
		after = *page.NextAfterKey
	}
	assert.Equal(t, []string{"k1", "k2", "k3", "k4", "k5"}, seen)

	// the end of data omits nextAfterKey on the wire
	_, stdout, _ := run("lsk", "--db", path, "--path", "a", "--prefix", b64("k5"))
	assert.NotContains(t, stdout, "nextAfterKey")

	runFail(t, 3, "PathNotFound", "lsk", "--db", path, "--path", "missing")
	runFail(t, 4, "NotABucket", "lsk", "--db", path, "--path", "a/k1")
}

func TestGet(t *testing.T) {
	value := strings.Repeat("0123456789", 10)
	path := storetesting.Build(t, storetesting.Tree{
		"a": storetesting.Tree{"k": value, "sub": storetesting.Tree{}},
	})

	var head codec.HeadResult
	runOK(t, &head, "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "head", "-n", "10")
	assert.Equal(t, codec.ModeHead, head.Mode)
	assert.Equal(t, 100, head.TotalSize)
	assert.Equal(t, "0123456789", unb64(t, head.ValueHeadBase64))

	// default head size covers the whole value
	runOK(t, &head, "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "head")
	assert.Equal(t, value, unb64(t, head.ValueHeadBase64))

	out := filepath.Join(t.TempDir(), "value.bin")
	var saved codec.SaveResult
	runOK(t, &saved, "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "save", "--out", out)
	assert.Equal(t, codec.SaveResult{Mode: codec.ModeSave, TotalSize: 100, Out: out}, saved)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, value, string(data))

	// a failed save leaves no file behind
	missingOut := filepath.Join(t.TempDir(), "missing.bin")
	runFail(t, 6, "KeyNotFound", "get", "--db", path, "--path", "a", "--key", b64("nope"), "--mode", "save", "--out", missingOut)
	_, err = os.Stat(missingOut)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(filepath.Dir(missingOut))
	require.NoError(t, err)
	assert.Empty(t, entries)

	runFail(t, 5, "NotAKey", "get", "--db", path, "--path", "a", "--key", b64("sub"), "--mode", "head")
	runFail(t, 2, "InvalidArgument", "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "tail")
	runFail(t, 2, "InvalidArgument", "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "save")
	runFail(t, 2, "InvalidArgument", "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "head", "--n", "-1")
	runFail(t, 2, "InvalidArgument", "get", "--db", path, "--path", "a", "--key", "", "--mode", "head")
}

func TestSearch(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{
		"users": storetesting.Tree{
			"Alice": "admin",
			"bob":   "alice's friend",
			"team":  storetesting.Tree{"alice-2": "x"},
		},
	})

	var res codec.SearchResult
	runOK(t, &res, "search", "--db", path, "--query", "alice", "--limit", "10")
	require.Len(t, res.Items, 2)
	assert.Equal(t, []string{"users"}, res.Items[0].Path)
	assert.Equal(t, "Alice", unb64(t, res.Items[0].KeyBase64))
	assert.Equal(t, codec.MatchTypeKey, res.Items[0].Type)
	assert.Equal(t, []string{"users", "team"}, res.Items[1].Path)
	assert.Equal(t, 2, res.Total)
	assert.False(t, res.Limited)

	// the single dash form is what the IDE client sends
	runOK(t, &res, "search", "--db", path, "--query", "alice", "--limit", "10", "-case-sensitive")
	require.Len(t, res.Items, 1)
	assert.Equal(t, "alice-2", unb64(t, res.Items[0].KeyBase64))

	runOK(t, &res, "search", "--db", path, "--query", "alice", "--limit", "1")
	assert.Len(t, res.Items, 1)
	assert.True(t, res.Limited)

	runOK(t, &res, "search", "--db", path, "--query", "friend", "--limit", "10", "--values")
	require.Len(t, res.Items, 1)
	assert.Equal(t, codec.MatchTypeValue, res.Items[0].Type)

	runOK(t, &res, "search", "--db", path, "--query", "alice", "--limit", "10", "--path", "users/team")
	assert.Len(t, res.Items, 1)

	runFail(t, 2, "InvalidArgument", "search", "--db", path, "--query", "", "--limit", "10")
	runFail(t, 2, "InvalidArgument", "search", "--db", path, "--query", "alice")
	runFail(t, 3, "PathNotFound", "search", "--db", path, "--query", "alice", "--limit", "10", "--path", "nope")
}

func TestExportAndStats(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{
		"a": storetesting.Tree{"p1": "1", "p2": "22", "q": "333", "psub": storetesting.Tree{"x": "y"}},
	})

	out := filepath.Join(t.TempDir(), "export.json")
	var ack codec.ExportResult
	runOK(t, &ack, "export", "--db", path, "--out", out, "--path", "a", "--prefix", b64("p"))
	assert.Equal(t, 3, ack.Keys)
	assert.Equal(t, 1, ack.Buckets)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), ack.Bytes)
	var doc codec.ExportDocument
	require.NoError(t, codec.NewJSONSerializer(false).Deserialize(data, &doc))
	assert.Equal(t, codec.ExportFormat, doc.Format)
	assert.Len(t, doc.Entries, 3)

	var stats codec.StatsResult
	runOK(t, &stats, "stats", "--db", path, "--path", "a")
	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, 3, stats.Keys)
	assert.Equal(t, 1, stats.Buckets)
	assert.Equal(t, int64(6), stats.TotalValueSize)
	assert.Equal(t, 3, stats.LargestValue)
	assert.Equal(t, 1, stats.SmallestValue)
	assert.InDelta(t, 0.8165, stats.StdDeviation, 1e-4)
	assert.Equal(t, 4, stats.NestedKeys)
	assert.Equal(t, 1, stats.Depth)
}

func TestOutputFileMode(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{"k": "v"}})
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.json")
	runOK(t, nil, "export", "--db", path, "--out", fresh)
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	existing := filepath.Join(dir, "existing.bin")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0640))
	require.NoError(t, os.Chmod(existing, 0640))
	runOK(t, nil, "get", "--db", path, "--path", "a", "--key", b64("k"), "--mode", "save", "--out", existing)
	info, err = os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
}

// --------------------------------------------------------------------------
// Write command
// --------------------------------------------------------------------------

func TestWrite(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{"k": "v"}})

	var ack codec.WriteAck
	runOK(t, &ack, "write", "--db", path, "--op", "create-bucket", "--path", "a/b")
	assert.Equal(t, codec.WriteAck{OK: true, Op: "create-bucket", Path: "a/b"}, ack)
	runFail(t, 7, "AlreadyExists", "write", "--db", path, "--op", "create-bucket", "--path", "a/b")

	runOK(t, &ack, "write", "--db", path, "--op", "put", "--path", "a/b", "--key", b64("k2"), "--value", b64("hello"))
	assert.Equal(t, b64("k2"), ack.KeyBase64)

	var head codec.HeadResult
	runOK(t, &head, "get", "--db", path, "--path", "a/b", "--key", b64("k2"), "--mode", "head", "--n", "5")
	assert.Equal(t, "hello", unb64(t, head.ValueHeadBase64))
	assert.Equal(t, 5, head.TotalSize)

	runOK(t, nil, "write", "--db", path, "--op", "delete-key", "--path", "a/b", "--key", b64("k2"))
	runOK(t, nil, "write", "--db", path, "--op", "delete-key", "--path", "a/b", "--key", b64("k2"))

	runOK(t, nil, "write", "--db", path, "--op", "delete-bucket", "--path", "a/b")
	runFail(t, 3, "PathNotFound", "write", "--db", path, "--op", "delete-bucket", "--path", "a/b")

	runFail(t, 3, "PathNotFound", "write", "--db", path, "--op", "put", "--path", "nope", "--key", b64("k"), "--value", b64("v"))
	runFail(t, 5, "NotAKey", "write", "--db", path, "--op", "delete-key", "--path", "", "--key", b64("a"))
	runFail(t, 2, "InvalidArgument", "write", "--db", path, "--op", "put", "--path", "", "--key", b64("z"), "--value", b64("v"))
	runFail(t, 2, "InvalidArgument", "write", "--db", path, "--op", "put", "--path", "a", "--key", b64("k"))
	runFail(t, 2, "InvalidArgument", "write", "--db", path, "--op", "create-bucket", "--path", "/")
	runFail(t, 2, "InvalidArgument", "write", "--db", path, "--op", "rename", "--path", "a")
	runFail(t, 2, "InvalidArgument", "write", "--db", path, "--op", "put", "--path", "a")
}

func TestWriteNeverCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")
	runFail(t, 9, "IOError", "write", "--db", path, "--op", "create-bucket", "--path", "a")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteLocked(t *testing.T) {
	path := storetesting.Build(t, storetesting.Tree{"a": storetesting.Tree{}})

	holder, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer holder.Close()

	runFail(t, 8, "StoreLocked", "write", "--db", path, "--timeout", "100ms", "--op", "create-bucket", "--path", "a/b")
}
