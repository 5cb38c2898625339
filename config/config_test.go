package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lattice-substrate/quickstore/config"
)

func TestEmptyDocumentYieldsDefaults(t *testing.T) {
	c, err := config.Parse(nil)
	require.NoError(t, err)
	if diff := cmp.Diff(config.Default(), *c); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := config.Parse([]byte(`
store:
  kind: bolt
  path: /var/lib/qds/prefs.db
  node: myapp
  timeout: 250ms
format:
  indent: 4
log:
  level: debug
`))
	require.NoError(t, err)

	want := config.Default()
	want.Store = config.StoreConfig{Kind: "bolt", Path: "/var/lib/qds/prefs.db", Node: "myapp", Timeout: 250 * time.Millisecond}
	want.Format.Indent = 4
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, *c); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
	require.Equal(t, 1000, c.ParserOptions().MaxDepth)
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		msg  string
	}{
		{"unknown field", "store:\n  kind: file\n  colour: red\n", "colour"},
		{"bad kind", "store:\n  kind: sql\n", "store.kind"},
		{"missing path", "store:\n  kind: file\n  path: \"\"\n", "store.path"},
		{"missing node", "store:\n  kind: bolt\n  node: \"\"\n", "store.node"},
		{"negative indent", "format:\n  indent: -1\n", "format.indent"},
		{"huge indent", "format:\n  indent: 64\n", "format.indent"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"zero depth", "parse:\n  max_depth: 0\n", "parse.max_depth"},
		{"depth beyond formatter bound", "parse:\n  max_depth: 2000\n", "parse.max_depth"},
		{"two documents", "log:\n  level: info\n---\nlog:\n  level: warn\n", "second document"},
		{"not yaml", "store: [", "decode config yaml"},
	}
	for _, tc := range cases {
		_, err := config.Parse([]byte(tc.doc))
		require.Error(t, err, tc.name)
		require.Contains(t, err.Error(), tc.msg, tc.name)
	}
}

func TestMaxDepthUpperBound(t *testing.T) {
	c, err := config.Parse([]byte("parse:\n  max_depth: 1000\n"))
	require.NoError(t, err)
	require.Equal(t, 1000, c.ParserOptions().MaxDepth)

	c = &config.Config{}
	*c = config.Default()
	c.Parse.MaxDepth = 1001
	require.ErrorContains(t, c.Validate(), "parse.max_depth")
}

func TestMemoryStoreNeedsNoPath(t *testing.T) {
	c, err := config.Parse([]byte("store:\n  kind: memory\n  path: \"\"\n"))
	require.NoError(t, err)
	require.Equal(t, config.KindMemory, c.Store.Kind)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format:\n  indent: 0\n"), 0o600))
	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, c.Format.Indent)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolvedPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := config.StoreConfig{Path: "~/.qds"}.ResolvedPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".qds"), p)

	p, err = config.StoreConfig{Path: "/tmp/x.qds"}.ResolvedPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.qds", p)

	p, err = config.StoreConfig{Path: "~other/x"}.ResolvedPath()
	require.NoError(t, err)
	require.Equal(t, "~other/x", p)
}
