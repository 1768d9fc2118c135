package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/defn"
)

func TestEnrollNeverIssuesFaceZero(t *testing.T) {
	tbl := NewTable()
	f, err := tbl.Enroll(NewNullTransport(), 0)
	require.NoError(t, err)
	assert.NotEqual(t, defn.NoFace, f.Id)
	assert.Equal(t, 1, f.Id.Slot())
}

func TestLookupAfterRemoveMisses(t *testing.T) {
	tbl := NewTable()
	f, err := tbl.Enroll(NewNullTransport(), 0)
	require.NoError(t, err)

	id := f.Id
	require.NotNil(t, tbl.Lookup(id))

	tbl.Remove(id)
	assert.Nil(t, tbl.Lookup(id))
}

func TestSlotReuseBumpsGeneration(t *testing.T) {
	tbl := NewTable()
	f1, err := tbl.Enroll(NewNullTransport(), 0)
	require.NoError(t, err)
	slot := f1.Id.Slot()
	gen1 := f1.Id.Generation()

	tbl.Remove(f1.Id)

	f2, err := tbl.Enroll(NewNullTransport(), 0)
	require.NoError(t, err)
	assert.Equal(t, slot, f2.Id.Slot())
	assert.Equal(t, gen1+1, f2.Id.Generation())

	// The old FaceId must not resolve to the new face.
	assert.Nil(t, tbl.Lookup(f1.Id))
	assert.NotNil(t, tbl.Lookup(f2.Id))
}

func TestLookupByPeerAddr(t *testing.T) {
	tbl := NewTable()
	tr := NewNullTransport()
	f, err := tbl.Enroll(tr, 0)
	require.NoError(t, err)

	found := tbl.LookupByPeerAddr(tr.RemoteURI().String())
	require.NotNil(t, found)
	assert.Equal(t, f.Id, found.Id)
}

func TestMarkIdlePassRetiresAfterTwoPasses(t *testing.T) {
	tbl := NewTable()
	f, err := tbl.Enroll(NewNullTransport(), 0)
	require.NoError(t, err)

	assert.False(t, f.MarkIdlePass())
	assert.True(t, f.MarkIdlePass())

	f.ResetIdle()
	assert.False(t, f.MarkIdlePass())
}
