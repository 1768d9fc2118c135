package mgmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
)

func TestGeneralStatusReflectsTableSizes(t *testing.T) {
	faces := face.NewTable()
	_, err := faces.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)

	th := New(faces, table.NewPit(), store.New(0))
	st := th.General()
	assert.Equal(t, 1, st.NFaces)
	assert.Equal(t, 0, st.NPitEntry)
	assert.Equal(t, 0, st.NCsEntry)
}

func TestFacesListsEveryFace(t *testing.T) {
	faces := face.NewTable()
	f, err := faces.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)

	th := New(faces, table.NewPit(), store.New(0))
	rows := th.Faces()
	require.Len(t, rows, 1)
	assert.Equal(t, uint32(f.Id), rows[0].FaceId)
}
