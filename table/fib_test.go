package table_test

import (
	"testing"

	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/table"
	enc "github.com/ndnfwd/fwd/std/encoding"
	"github.com/stretchr/testify/require"
)

func name(t *testing.T, comps ...string) enc.Name {
	t.Helper()
	n := make(enc.Name, 0, len(comps))
	for _, c := range comps {
		comp, err := enc.ComponentFromStr(c)
		require.NoError(t, err)
		n = append(n, comp)
	}
	return n
}

// TestFibExactMatch checks that a registered short prefix (below
// startDepth) is found by an exact lookup.
func TestFibExactMatch(t *testing.T) {
	fib := table.NewFib(4, 1)
	n := name(t, "a", "b")
	fib.Insert(n, []ndni.FaceID{1}, "multicast")

	got := fib.Lookup(name(t, "a", "b", "c"))
	require.NotNil(t, got)
	require.True(t, got.Name.Equal(n))
}

// TestFibLongestPrefixWins checks that a deeper registered prefix is
// preferred over a shorter one.
func TestFibLongestPrefixWins(t *testing.T) {
	fib := table.NewFib(4, 1)
	fib.Insert(name(t, "a"), []ndni.FaceID{1}, "multicast")
	deep := name(t, "a", "b", "c")
	fib.Insert(deep, []ndni.FaceID{2}, "multicast")

	got := fib.Lookup(name(t, "a", "b", "c", "d"))
	require.NotNil(t, got)
	require.True(t, got.Name.Equal(deep))
}

// TestFibStartDepthVirtualLookup checks the two-stage path: a real
// entry registered deeper than startDepth is found via the stage-1
// virtual marker.
func TestFibStartDepthVirtualLookup(t *testing.T) {
	fib := table.NewFib(2, 1)
	deep := name(t, "a", "b", "c", "d")
	fib.Insert(deep, []ndni.FaceID{9}, "multicast")

	got := fib.Lookup(name(t, "a", "b", "c", "d", "e"))
	require.NotNil(t, got)
	require.True(t, got.Name.Equal(deep))
}

// TestFibMiss checks that an unregistered name returns no entry.
func TestFibMiss(t *testing.T) {
	fib := table.NewFib(4, 1)
	require.Nil(t, fib.Lookup(name(t, "x", "y")))
}

// TestFibErase checks that erasing a registered entry removes it from
// subsequent lookups.
func TestFibErase(t *testing.T) {
	fib := table.NewFib(4, 1)
	n := name(t, "a", "b")
	fib.Insert(n, []ndni.FaceID{1}, "multicast")
	fib.Erase(n)
	require.Nil(t, fib.Lookup(n))
}

// TestFilterNexthopsExcludesIngress checks that FilterNexthops omits
// the ingress face while preserving order.
func TestFilterNexthopsExcludesIngress(t *testing.T) {
	entry := &table.FibEntry{Nexthops: []ndni.FaceID{1, 2, 3}}
	out := table.FilterNexthops(entry, []ndni.FaceID{2})
	require.Equal(t, []ndni.FaceID{1, 3}, out)
}

// TestFibInsertWeightedStoresWeights checks that InsertWeighted
// records the given per-nexthop weights on the entry, and that a
// plain Insert (no weights) clears any previously configured map.
func TestFibInsertWeightedStoresWeights(t *testing.T) {
	fib := table.NewFib(4, 1)
	n := name(t, "a", "b")
	fib.InsertWeighted(n, []ndni.FaceID{1, 2}, map[ndni.FaceID]int{1: 3, 2: 1}, "weighted-roundrobin")

	got := fib.Lookup(n)
	require.NotNil(t, got)
	require.Equal(t, 3, got.Weights[1])
	require.Equal(t, 1, got.Weights[2])

	fib.Insert(n, []ndni.FaceID{1, 2}, "multicast")
	got = fib.Lookup(n)
	require.Nil(t, got.Weights)
}
