package reap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/sched"
	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
	"github.com/ccn-go/ccnd/internal/wire"
)

func TestInactivityPassRetiresAfterTwoPasses(t *testing.T) {
	faces := face.NewTable()
	f, err := faces.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)

	r := New(DefaultConfig(), sched.New(), faces, table.NewPit(), table.NewPrefixTable(), store.New(0))

	r.inactivityPass(sched.EventInactivityCheck, false)
	assert.NotNil(t, faces.Lookup(f.Id))

	r.inactivityPass(sched.EventInactivityCheck, false)
	assert.Nil(t, faces.Lookup(f.Id))
}

func TestPitPassExpiresAndPenalizesPrefix(t *testing.T) {
	pit := table.NewPit()
	pt := table.NewPrefixTable()
	prefix := pt.Insert(wire.Name{wire.Component("p")})
	startUsec := prefix.Usec()

	it := &wire.Interest{
		Name:             wire.Name{wire.Component("p")},
		InterestLifetime: -time.Second, // already expired
		Nonce:            []byte("abcdef"),
	}
	e := pit.Insert(it, prefix)
	e.UpsertOutRecord(5, table.Wait1)

	r := New(DefaultConfig(), sched.New(), face.NewTable(), pit, pt, store.New(0))
	r.pitPass(sched.EventReap, false)

	assert.Equal(t, 0, pit.Len())
	assert.Greater(t, prefix.Usec(), startUsec)
}

func TestStorePassCleansStaleEntries(t *testing.T) {
	cs := store.New(0)
	cs.Insert(wire.Name{wire.Component("s")}, []byte{1}, []byte("stale"), -time.Second)

	r := New(DefaultConfig(), sched.New(), face.NewTable(), table.NewPit(), table.NewPrefixTable(), cs)
	r.storePass(sched.EventCleanStore, false)

	assert.Equal(t, 0, cs.Len())
}

func TestCancelledPassesReturnZero(t *testing.T) {
	r := New(DefaultConfig(), sched.New(), face.NewTable(), table.NewPit(), table.NewPrefixTable(), store.New(0))
	assert.Equal(t, time.Duration(0), r.inactivityPass(sched.EventInactivityCheck, true))
	assert.Equal(t, time.Duration(0), r.pitPass(sched.EventReap, true))
	assert.Equal(t, time.Duration(0), r.prefixPass(sched.EventReap, true))
	assert.Equal(t, time.Duration(0), r.storePass(sched.EventCleanStore, true))
}
