package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-substrate/quickstore/qserr"
	"github.com/lattice-substrate/quickstore/store"
	"github.com/lattice-substrate/quickstore/store/boltstore"
)

var _ store.ValueStore = (*boltstore.Store)(nil)

func openStore(t *testing.T, node string) *boltstore.Store {
	t.Helper()
	s, err := boltstore.Open(filepath.Join(t.TempDir(), "prefs.db"), node, boltstore.WithNoSync())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "app")

	_, ok, err := s.LoadValue(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.WriteValue(ctx, "a", `{"type":"primitive","class":"int","primitive":1}`))
	require.NoError(t, s.WriteValue(ctx, "a", `{"type":"primitive","class":"int","primitive":2}`))

	v, ok, err := s.LoadValue(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"type":"primitive","class":"int","primitive":2}`, v)
}

func TestNodesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := openStore(t, "alpha")
	b := a.Node("beta")

	require.NoError(t, a.WriteValue(ctx, "k", "1"))
	require.NoError(t, b.WriteValue(ctx, "k", "2"))

	v, _, err := a.LoadValue(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "1", v)
	v, _, err = b.LoadValue(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "2", v)

	_, ok, err := a.Node("gamma").LoadValue(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	nodes, err := a.Nodes(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, nodes)
}

func TestReopenKeepsValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")
	s, err := boltstore.Open(path, "app")
	require.NoError(t, err)
	require.NoError(t, s.WriteValue(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = boltstore.Open(path, "app")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	v, ok, err := s.LoadValue(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestRemoveAndKeys(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "app")
	require.NoError(t, s.Remove(ctx, "missing"))
	require.NoError(t, s.WriteValue(ctx, "b", "2"))
	require.NoError(t, s.WriteValue(ctx, "a", "1"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, s.Remove(ctx, "a"))
	_, ok, err := s.LoadValue(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRejectsBadEntries(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "app")
	require.True(t, qserr.Is(s.WriteValue(ctx, "a=b", "1"), qserr.InvalidEntry))
	require.True(t, qserr.Is(s.WriteValue(ctx, "a", "x\ny"), qserr.InvalidEntry))
}

func TestOpenFailureIsIOError(t *testing.T) {
	_, err := boltstore.Open(filepath.Join(t.TempDir(), "missing", "prefs.db"), "app")
	require.True(t, qserr.Is(err, qserr.IOError), "%v", err)
}

func TestDefaultNode(t *testing.T) {
	cases := map[string]string{
		"com.example.MyApp$1": "comexampleMyApp",
		"qds-cli":             "qdscli",
		"":                    "quickstore",
		"123":                 "quickstore",
	}
	for in, want := range cases {
		require.Equal(t, want, boltstore.DefaultNode(in), in)
	}
}
