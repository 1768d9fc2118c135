package propagate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/table"
	"github.com/ccn-go/ccnd/internal/wire"
)

func TestGetOutboundFacesExcludesArrivalFace(t *testing.T) {
	tbl := face.NewTable()
	f1, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)
	f2, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)

	out := GetOutboundFaces(tbl, nil, 2, f1.Id)
	assert.NotContains(t, out, f1.Id)
	assert.Contains(t, out, f2.Id)
}

func TestGetOutboundFacesPreferredSrcFirst(t *testing.T) {
	tbl := face.NewTable()
	f1, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)
	f2, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)

	pt := table.NewPrefixTable()
	prefix := pt.Insert(wire.Name{wire.Component("p")})
	prefix.RecordHit(f2.Id, 100)

	out := GetOutboundFaces(tbl, prefix, 2, defn.NoFace)
	require.NotEmpty(t, out)
	assert.Equal(t, f2.Id, out[0])
	assert.Contains(t, out, f1.Id)
}

func TestGetOutboundFacesScopeZeroIsEmpty(t *testing.T) {
	tbl := face.NewTable()
	f1, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)
	_, err = tbl.Enroll(face.NewNullTransport(), defn.FaceFlagLocal)
	require.NoError(t, err)

	out := GetOutboundFaces(tbl, nil, 0, f1.Id)
	assert.Empty(t, out)
}

func TestGetOutboundFacesScopeOneExcludesLinkWrapped(t *testing.T) {
	tbl := face.NewTable()
	arrival, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)
	plain, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)
	wrapped, err := tbl.Enroll(face.NewNullTransport(), defn.FaceFlagLinkWrap)
	require.NoError(t, err)

	out := GetOutboundFaces(tbl, nil, 1, arrival.Id)
	assert.NotContains(t, out, arrival.Id)
	assert.NotContains(t, out, wrapped.Id)
	assert.Contains(t, out, plain.Id)
}

func TestAdvanceOnTimeoutReportsWait1Faces(t *testing.T) {
	pit := table.NewPit()
	it := &wire.Interest{
		Name:             wire.Name{wire.Component("n")},
		InterestLifetime: time.Second,
		Nonce:            []byte("abcdef"),
	}
	e := pit.Insert(it, nil)
	e.UpsertOutRecord(defn.FaceId(5), table.Wait1)
	e.UpsertOutRecord(defn.FaceId(6), table.Stuffed1)

	timedOut := AdvanceOnTimeout(e)
	assert.Equal(t, []defn.FaceId{5}, timedOut)
}

func TestStuffInterestRespectsMTU(t *testing.T) {
	content := make([]byte, 100)
	interest := make([]byte, 50)
	_, ok := StuffInterest(content, interest, 10)
	assert.False(t, ok)

	combined, ok := StuffInterest(content, interest, 2000)
	assert.True(t, ok)
	assert.NotEmpty(t, combined)
}
