// Package mgmt exposes an in-process introspection surface over the
// daemon's tables (spec.md §1 keeps any wire-level management protocol
// or HTTP status server as an external collaborator; this package is
// the Go-API analogue of the teacher's ForwarderStatusModule/CsModule,
// adapted to return plain structs instead of encoding a management
// response over the wire).
package mgmt

import (
	"time"

	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
)

// GeneralStatus mirrors the teacher's ForwarderStatusModule "general"
// verb: a point-in-time snapshot of the daemon's table sizes.
type GeneralStatus struct {
	NFaces    int
	NPitEntry int
	NCsEntry  int
	Uptime    time.Duration
}

// CsStatus mirrors the teacher's CsModule's content-store info verb.
type CsStatus struct {
	NEntries int
	Capacity int
}

// FaceStatus mirrors one row of a face-list response.
type FaceStatus struct {
	FaceId    uint32
	Remote    string
	Local     string
	Scope     string
	NInBytes  uint64
	NOutBytes uint64
}

// Thread is the introspection surface's bound context, analogous to the
// teacher's mgmt.Thread but carrying direct table references instead of
// dispatching decoded control Interests to per-concern modules.
type Thread struct {
	started time.Time
	faces   *face.Table
	pit     *table.Pit
	cs      *store.Store
}

// New constructs a management Thread bound to the daemon's live tables.
func New(faces *face.Table, pit *table.Pit, cs *store.Store) *Thread {
	return &Thread{started: time.Now(), faces: faces, pit: pit, cs: cs}
}

// General returns the forwarder's general status snapshot.
func (t *Thread) General() GeneralStatus {
	return GeneralStatus{
		NFaces:    t.faces.Len(),
		NPitEntry: t.pit.Len(),
		NCsEntry:  t.cs.Len(),
		Uptime:    time.Since(t.started),
	}
}

// Cs returns the content store's status snapshot.
func (t *Thread) Cs(capacity int) CsStatus {
	return CsStatus{NEntries: t.cs.Len(), Capacity: capacity}
}

// Faces returns a status row for every live face.
func (t *Thread) Faces() []FaceStatus {
	var out []FaceStatus
	t.faces.Range(func(f *face.Face) {
		scope := "non-local"
		if f.Transport.Scope() == 0 {
			scope = "local"
		}
		out = append(out, FaceStatus{
			FaceId:    uint32(f.Id),
			Remote:    f.Transport.RemoteURI().String(),
			Local:     f.Transport.LocalURI().String(),
			Scope:     scope,
			NInBytes:  f.Transport.NInBytes(),
			NOutBytes: f.Transport.NOutBytes(),
		})
	})
	return out
}
