// Package propagate implements the propagation engine (spec.md §4.8,
// C8): computing the outbound face set for an interest, enqueuing it
// (or piggybacking it onto an outgoing ContentObject), and advancing
// each out-record through the UNSENT/WAIT1/STUFFED1 state machine.
package propagate

import (
	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/queue"
	"github.com/ccn-go/ccnd/internal/table"
	"github.com/ccn-go/ccnd/internal/wire"
)

// GetOutboundFaces computes which faces an interest under prefix may go
// out, applying spec.md §4.8's Scope rules (matching
// _examples/original_source/ccnd/agent/ccnd.c's get_outbound_faces):
//
//	Scope 0: never propagated anywhere — the empty set.
//	Scope 1: every live face except arrivalFace and except any
//	         link-wrapped face (FaceFlagLinkWrap).
//	Scope 2 (or unset/"2 or more"): any face except arrivalFace and
//	         except any face flagged FaceFlagDontSend.
//
// The preferred-provider faces (prefix.Src then prefix.Osrc) are ordered
// to the front of the returned set, a duplicate-suppression-aware
// reordering matching spec.md §4.8's "osrc-then-src outbound ordering".
func GetOutboundFaces(tbl *face.Table, prefix *table.PrefixEntry, scope int, arrivalFace defn.FaceId) []defn.FaceId {
	var candidates []defn.FaceId

	switch scope {
	case 0:
		return nil
	case 1:
		tbl.Range(func(f *face.Face) {
			if f.Id != arrivalFace && !f.Flags.Has(defn.FaceFlagLinkWrap) {
				candidates = append(candidates, f.Id)
			}
		})
	default:
		tbl.Range(func(f *face.Face) {
			if f.Id != arrivalFace && !f.Flags.Has(defn.FaceFlagDontSend) {
				candidates = append(candidates, f.Id)
			}
		})
	}

	return reorderPreferred(candidates, prefix)
}

// reorderPreferred moves prefix.Src (if present in candidates) to the
// front, then prefix.Osrc right after it, leaving the rest in their
// original relative order.
func reorderPreferred(candidates []defn.FaceId, prefix *table.PrefixEntry) []defn.FaceId {
	if prefix == nil {
		return candidates
	}
	src, osrc := prefix.Src(), prefix.Osrc()
	if src == defn.NoFace && osrc == defn.NoFace {
		return candidates
	}

	out := make([]defn.FaceId, 0, len(candidates))
	var rest []defn.FaceId
	for _, c := range candidates {
		switch c {
		case src:
			out = append([]defn.FaceId{c}, out...)
		case osrc:
			rest = append([]defn.FaceId{c}, rest...)
		default:
			rest = append(rest, c)
		}
	}
	return append(out, rest...)
}

// Send enqueues it's encoded form on face's ASAP queue via the face's
// Queues, advancing the PIT entry's out-record to Wait1. accession
// identifies the already-stored frame the queue will later resolve via
// its Lookup callback (here, a one-shot interest isn't stored in the
// content store, so propagate.Send uses an interest-local accession
// space; the caller supplies a lookup that resolves it, typically a
// small LRU of in-flight interest frames rather than the content
// store's skiplist).
func Send(f *face.Face, entry *table.Entry, accession uint64) {
	f.Queues.Enqueue(queue.ASAP, accession)
	entry.UpsertOutRecord(f.Id, table.Wait1)
}

// StuffInterest piggybacks it onto an outgoing ContentObject frame
// headed to the same face, provided doing so keeps the combined frame
// within mtu. It returns the combined frame and true on success. It
// keeps no record of earlier stuffing, so limiting how many interests
// are stuffed per prefix is left to the caller.
func StuffInterest(contentFrame []byte, interestFrame []byte, mtu int) ([]byte, bool) {
	combined := wire.WrapPDU(contentFrame, interestFrame)
	if len(combined) > mtu {
		return nil, false
	}
	return combined, true
}

// AdvanceOnTimeout reports the faces whose out-record on entry is still
// in WAIT1, so the caller can penalize their PrefixEntry's response time
// (PrefixEntry.RecordMiss). It does not modify entry.
func AdvanceOnTimeout(entry *table.Entry) []defn.FaceId {
	var timedOut []defn.FaceId
	for faceID, rec := range entry.OutRecords() {
		if rec.State == table.Wait1 {
			timedOut = append(timedOut, faceID)
		}
	}
	return timedOut
}
