package table_test

import (
	"testing"

	"github.com/ndnfwd/fwd/table"
	"github.com/stretchr/testify/require"
)

// TestPcctInsertFindErase checks basic create/find/erase semantics.
func TestPcctInsertFindErase(t *testing.T) {
	pcct := table.NewPcct(4)
	n := name(t, "a", "b")

	e1, isNew, err := pcct.Insert(n)
	require.NoError(t, err)
	require.True(t, isNew)

	e2, isNew2, err := pcct.Insert(n)
	require.NoError(t, err)
	require.False(t, isNew2)
	require.Same(t, e1, e2)

	require.Same(t, e1, pcct.Find(n))

	pcct.Erase(e1)
	require.Nil(t, pcct.Find(n))
}

// TestPcctCapacityExhausted checks that Insert past capacity reports
// ErrTableFull without disturbing existing entries.
func TestPcctCapacityExhausted(t *testing.T) {
	pcct := table.NewPcct(1)
	_, _, err := pcct.Insert(name(t, "a"))
	require.NoError(t, err)

	_, _, err = pcct.Insert(name(t, "b"))
	require.Error(t, err)
	require.IsType(t, table.ErrTableFull{}, err)
}

// TestPcctTokenMintFindRemove checks the token index round-trips.
func TestPcctTokenMintFindRemove(t *testing.T) {
	pcct := table.NewPcct(4)
	e, _, err := pcct.Insert(name(t, "a"))
	require.NoError(t, err)

	tok := pcct.AddToken(e)
	require.Same(t, e, pcct.FindByToken(tok))

	// minting again on an entry that already has a token is a no-op
	tok2 := pcct.AddToken(e)
	require.Equal(t, tok, tok2)

	pcct.RemoveToken(e)
	require.Nil(t, pcct.FindByToken(tok))
}

// TestPcctReleaseIfIdle checks that an entry with no PIT/CS state is
// reclaimed, but a still-occupied one survives.
func TestPcctReleaseIfIdle(t *testing.T) {
	pcct := table.NewPcct(4)
	n := name(t, "a")
	e, _, err := pcct.Insert(n)
	require.NoError(t, err)
	e.Cs = &table.CsEntry{}

	pcct.ReleaseIfIdle(e)
	require.NotNil(t, pcct.Find(n))

	e.Cs = nil
	pcct.ReleaseIfIdle(e)
	require.Nil(t, pcct.Find(n))
}

// TestMakeParseToken checks the wire format round-trips the worker ID
// and the masked 48-bit PCC token.
func TestMakeParseToken(t *testing.T) {
	tok := table.MakeToken(0x1234, 0xdeadbeefcafe)
	workerID, pccToken, ok := table.ParseToken(tok)
	require.True(t, ok)
	require.Equal(t, uint16(0x1234), workerID)
	require.Equal(t, uint64(0xdeadbeefcafe)&table.PccTokenMask, pccToken)
}

// TestParseTokenWrongLength checks that a malformed token is rejected.
func TestParseTokenWrongLength(t *testing.T) {
	_, _, ok := table.ParseToken([]byte{1, 2, 3})
	require.False(t, ok)
}
