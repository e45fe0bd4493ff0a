package table_test

import (
	"testing"
	"time"

	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/table"
	"github.com/stretchr/testify/require"
)

type fakeIndirect struct {
	data map[string]*ndni.Data
	recv map[string]time.Time
}

func newFakeIndirect() *fakeIndirect {
	return &fakeIndirect{data: map[string]*ndni.Data{}, recv: map[string]time.Time{}}
}

func (f *fakeIndirect) Put(name []byte, data *ndni.Data, recvTime time.Time) error {
	f.data[string(name)] = data
	f.recv[string(name)] = recvTime
	return nil
}

func (f *fakeIndirect) Get(name []byte) (*ndni.Data, time.Time, bool) {
	d, ok := f.data[string(name)]
	return d, f.recv[string(name)], ok
}

func (f *fakeIndirect) Delete(name []byte) {
	delete(f.data, string(name))
	delete(f.recv, string(name))
}

// TestCsInsertFindExactPit0 checks a PIT0 (exact) hit is findable by an
// equivalent non-prefix Interest afterward.
func TestCsInsertFindExactPit0(t *testing.T) {
	pcct := table.NewPcct(4)
	cs := table.NewCs(pcct, 4, nil)
	pit := table.NewPit(pcct)

	n := name(t, "a", "b")
	now := time.Unix(1000, 0)
	it := &ndni.Interest{Name: n, ActiveFH: -1}
	res := pit.Insert(it, alwaysMiss)
	require.Equal(t, table.PitHitPit0, res.Kind)

	data := &ndni.Data{Name: n, FreshnessPeriod: time.Minute}
	cs.Insert(res.Entry, table.Pit0, data, now)

	found := cs.Find(&ndni.Interest{Name: n, ActiveFH: -1}, now)
	require.NotNil(t, found)
	require.Same(t, data, found.Data)
}

// TestCsSatisfiesMustBeFresh checks MustBeFresh rejects stale Data.
func TestCsSatisfiesMustBeFresh(t *testing.T) {
	now := time.Unix(2000, 0)
	entry := &table.CsEntry{
		Data:     &ndni.Data{Name: name(t, "a"), FreshnessPeriod: time.Second},
		RecvTime: now.Add(-time.Hour),
	}
	it := &ndni.Interest{Name: name(t, "a"), ActiveFH: -1, MustBeFresh: true}
	require.False(t, entry.Satisfies(it, now))
}

// TestCsSatisfiesCanBePrefix checks a CanBePrefix Interest matches a
// longer stored Data name sharing its prefix.
func TestCsSatisfiesCanBePrefix(t *testing.T) {
	now := time.Unix(3000, 0)
	entry := &table.CsEntry{
		Data:     &ndni.Data{Name: name(t, "a", "b", "v1"), FreshnessPeriod: time.Hour},
		RecvTime: now,
	}
	it := &ndni.Interest{Name: name(t, "a", "b"), ActiveFH: -1, CanBePrefix: true}
	require.True(t, entry.Satisfies(it, now))
}

// TestCsEvictionSpillsToIndirect checks that an entry evicted from the
// resident LRU lands in the attached indirect store and remains
// findable through Cs.Find.
func TestCsEvictionSpillsToIndirect(t *testing.T) {
	pcct := table.NewPcct(8)
	indirect := newFakeIndirect()
	cs := table.NewCs(pcct, 1, indirect)
	pit := table.NewPit(pcct)
	now := time.Unix(4000, 0)

	n1 := name(t, "a")
	it1 := &ndni.Interest{Name: n1, ActiveFH: -1}
	res1 := pit.Insert(it1, alwaysMiss)
	cs.Insert(res1.Entry, table.Pit0, &ndni.Data{Name: n1, FreshnessPeriod: time.Hour}, now)

	n2 := name(t, "b")
	it2 := &ndni.Interest{Name: n2, ActiveFH: -1}
	res2 := pit.Insert(it2, alwaysMiss)
	cs.Insert(res2.Entry, table.Pit0, &ndni.Data{Name: n2, FreshnessPeriod: time.Hour}, now)

	found := cs.Find(&ndni.Interest{Name: n1, ActiveFH: -1}, now)
	require.NotNil(t, found)
	require.True(t, found.Data.Name.Equal(n1))
}

// TestCsFindWithoutIndirectMisses checks that without an indirect
// store, an evicted entry is simply gone.
func TestCsFindWithoutIndirectMisses(t *testing.T) {
	pcct := table.NewPcct(8)
	cs := table.NewCs(pcct, 1, nil)
	pit := table.NewPit(pcct)
	now := time.Unix(5000, 0)

	n1 := name(t, "a")
	res1 := pit.Insert(&ndni.Interest{Name: n1, ActiveFH: -1}, alwaysMiss)
	cs.Insert(res1.Entry, table.Pit0, &ndni.Data{Name: n1, FreshnessPeriod: time.Hour}, now)

	n2 := name(t, "b")
	res2 := pit.Insert(&ndni.Interest{Name: n2, ActiveFH: -1}, alwaysMiss)
	cs.Insert(res2.Entry, table.Pit0, &ndni.Data{Name: n2, FreshnessPeriod: time.Hour}, now)

	require.Nil(t, cs.Find(&ndni.Interest{Name: n1, ActiveFH: -1}, now))
}
