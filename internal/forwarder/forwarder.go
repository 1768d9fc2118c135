// Package forwarder wires together every table and engine package into
// the running daemon: the per-face dispatch loop, the propagation
// engine's interest forwarding, and the matcher's content-satisfaction
// path. This is the integration point spec.md §1 describes as "the
// forwarding core" — everything upstream (codec, transports) and
// downstream (mgmt, metrics) plugs into it.
package forwarder

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccn-go/ccnd/internal/core"
	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/dispatch"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/match"
	"github.com/ccn-go/ccnd/internal/metrics"
	"github.com/ccn-go/ccnd/internal/mgmt"
	"github.com/ccn-go/ccnd/internal/propagate"
	"github.com/ccn-go/ccnd/internal/queue"
	"github.com/ccn-go/ccnd/internal/reap"
	"github.com/ccn-go/ccnd/internal/sched"
	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
	"github.com/ccn-go/ccnd/internal/wire"
)

// Forwarder is the ccnd instance: every table, the scheduler, the
// dispatcher, and the live in-flight-interest accounting that lets a
// queued interest be revalidated on send (spec.md §4.6).
type Forwarder struct {
	Faces  *face.Table
	Pit    *table.Pit
	Prefix *table.PrefixTable
	Store  *store.Store

	Sched      *sched.Scheduler
	Dispatcher *dispatch.Dispatcher
	Reapers    *reap.Reapers
	Mgmt       *mgmt.Thread
	Metrics    *metrics.Collectors

	verifier wire.Verifier

	mu           sync.Mutex
	inflightSeq  uint64
	inflightByID map[uint64]inflightFrame // accession space for queued interest frames, distinct from the content store's
}

type inflightFrame struct {
	frame []byte
	added time.Time
}

// inflightMaxAge bounds how long an unsent/in-flight interest frame is
// kept resolvable by accession before the periodic prune reclaims it;
// comfortably longer than any realistic InterestLifetime (spec.md §6
// default is 4s) so a slow-draining SLOW-class queue never loses its
// frame out from under it.
const inflightMaxAge = time.Minute

// New assembles a Forwarder with fresh, empty tables.
func New(storeCapacity int, reg *prometheus.Registry) *Forwarder {
	fw := &Forwarder{
		Faces:        face.NewTable(),
		Pit:          table.NewPit(),
		Prefix:       table.NewPrefixTable(),
		Store:        store.New(storeCapacity),
		Sched:        sched.New(),
		verifier:     wire.Sha256Verifier{},
		inflightByID: make(map[uint64]inflightFrame),
	}
	if reg != nil {
		fw.Metrics = metrics.NewCollectors(reg)
	}
	fw.Mgmt = mgmt.New(fw.Faces, fw.Pit, fw.Store)
	fw.Reapers = reap.New(reap.DefaultConfig(), fw.Sched, fw.Faces, fw.Pit, fw.Prefix, fw.Store)
	fw.Dispatcher = dispatch.New(dispatch.Handlers{
		OnInterest:      fw.onInterest,
		OnContentObject: fw.onContentObject,
		OnInject:        fw.onInject,
	})
	return fw
}

// Start begins periodic housekeeping and launches the scheduler's event
// loop in its own goroutine, then returns.
func (fw *Forwarder) Start() {
	fw.Reapers.Start()
	fw.Sched.Schedule(inflightMaxAge, sched.EventCleanStore, fw.pruneInflight)
	if fw.Metrics != nil {
		fw.Sched.Schedule(metricsInterval, sched.EventReap, fw.collectMetrics)
	}
	go fw.Sched.Run()
}

// metricsInterval is how often Collectors are refreshed from the live
// tables and every enrolled face.
const metricsInterval = 5 * time.Second

func (fw *Forwarder) collectMetrics(_ sched.EventKind, cancelled bool) time.Duration {
	if cancelled {
		return 0
	}
	fw.Metrics.ObserveTables(fw.Pit.Len(), fw.Store.Len(), fw.Prefix.Len())
	fw.Faces.Range(func(f *face.Face) {
		fw.Metrics.ObserveFace(f)
	})
	return metricsInterval
}

// pruneInflight reclaims in-flight interest frames that outlived
// inflightMaxAge, the bounded alternative to tracking each frame's
// removal explicitly against every PIT entry that referenced it.
func (fw *Forwarder) pruneInflight(_ sched.EventKind, cancelled bool) time.Duration {
	if cancelled {
		return 0
	}
	cutoff := time.Now().Add(-inflightMaxAge)
	fw.mu.Lock()
	for id, fr := range fw.inflightByID {
		if fr.added.Before(cutoff) {
			delete(fw.inflightByID, id)
		}
	}
	fw.mu.Unlock()
	return inflightMaxAge
}

// Stop halts the scheduler and every pending event.
func (fw *Forwarder) Stop() {
	fw.Sched.Stop()
}

// AddFace enrolls tr, starts its receive goroutine and its outbound
// drain goroutine, and returns the resulting Face.
func (fw *Forwarder) AddFace(tr face.Transport, flags defn.FaceFlags) (*face.Face, error) {
	f, err := fw.Faces.Enroll(tr, flags)
	if err != nil {
		return nil, err
	}
	go fw.Dispatcher.ServeFace(f)
	go fw.drainLoop(f)
	return f, nil
}

// drainLoop services f's three outbound queues in strict ASAP/NORMAL/
// SLOW priority order, sending the resolved frame and then spacing the
// next send per spec.md §4.6: randomized in [min, 2*min] unless f has
// proven itself a preferred provider by draining preferredStreak times
// running, in which case spacing is fixed at min.
func (fw *Forwarder) drainLoop(f *face.Face) {
	for f.Transport.IsRunning() {
		class, ok := f.Queues.NextClass()
		if !ok {
			f.Queues.ResetStreak()
			time.Sleep(time.Millisecond)
			continue
		}
		frame, ok := f.Queues.Drain(class, fw.resolveAccession)
		if !ok {
			continue
		}
		if err := dispatch.SendTo(f, frame); err != nil {
			core.Log.Debug(f, "send failed", "err", err)
		}
		preferred := f.Queues.Preferred()
		f.Queues.RecordSend()
		time.Sleep(queue.SendDelay(class, linkKindOf(f), preferred))
	}
}

func linkKindOf(f *face.Face) queue.LinkKind {
	if f.Flags.Has(defn.FaceFlagLinkWrap) {
		return queue.LinkWrapped
	}
	if f.Flags.Has(defn.FaceFlagStream) {
		return queue.LinkLocalStream
	}
	return queue.LinkDatagram
}

// resolveAccession looks an accession number up first in the content
// store (ContentObject sends), then in the in-flight interest table
// (Interest sends), matching queue.Lookup's contract.
func (fw *Forwarder) resolveAccession(accession uint64) ([]byte, bool) {
	if frame, ok := fw.Store.Lookup(accession); ok {
		return frame, true
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fr, ok := fw.inflightByID[accession]
	return fr.frame, ok
}

func (fw *Forwarder) trackInflight(frame []byte) uint64 {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	id := fw.inflightSeq
	fw.inflightSeq++
	fw.inflightByID[id] = inflightFrame{frame: frame, added: time.Now()}
	return id
}

// onInterest is the C7/C8 pipeline for an arriving Interest: check the
// content store first, else register/coalesce a PIT entry and
// propagate outward (spec.md §4.5, §4.7, §4.8).
func (fw *Forwarder) onInterest(f *face.Face, it *wire.Interest) {
	if fw.Pit.IsDuplicate(it.Nonce) && it.Nonce != nil {
		core.Log.Debug(f, "dropping duplicate interest nonce")
		return
	}

	if it.AnswerOriginKind&wire.AOKContentStore != 0 {
		if hit := match.FindContentForInterest(fw.Store, it); hit != nil {
			fw.sendContentFrame(f, hit)
			return
		}
	}

	// A Nonce must exist before the PIT keys this entry on it — fill one
	// in now rather than after registration (spec.md §4.5: "the forwarder
	// inserts a 6-byte random one before propagation").
	if it.Nonce == nil {
		it.Nonce = synthesizeNonce()
		it.Encode()
	}

	prefix := fw.Prefix.Insert(it.Name)
	entry, existed, ok := fw.registerPit(it, prefix, f.Id)
	if !ok {
		return // same-face tolerance exceeded; drop
	}
	if existed {
		return // already propagating; nothing further to do
	}

	outFaces := propagate.GetOutboundFaces(fw.Faces, prefix, it.Scope, f.Id)
	accession := fw.trackInflight(it.Raw)
	for _, faceID := range outFaces {
		out := fw.Faces.Lookup(faceID)
		if out == nil {
			continue
		}
		propagate.Send(out, entry, accession)
	}
}

// registerPit finds a still-pending PIT entry to aggregate onto: CCN
// aggregation keys on name + selectors, not Nonce (a Nonce-keyed lookup
// would never hit here since onInterest's IsDuplicate check already
// drops a repeated Nonce before reaching this point). A matching
// pending entry means this Interest is already being forwarded, so
// existed=true tells the caller to add an in-record and skip
// re-propagating (spec.md §4.5).
func (fw *Forwarder) registerPit(it *wire.Interest, prefix *table.PrefixEntry, arrivalFace defn.FaceId) (*table.Entry, bool, bool) {
	canBePrefix := it.MaxSuffixComponents != 0
	mustBeFresh := it.AnswerOriginKind&wire.AOKStale == 0

	for _, existing := range fw.Pit.EntriesForName(it.Name) {
		if existing.Satisfied() || existing.CanBePrefix != canBePrefix || existing.MustBeFresh != mustBeFresh {
			continue
		}
		_, _, ok := existing.InsertInRecord(arrivalFace)
		return existing, true, ok
	}

	entry := fw.Pit.Insert(it, prefix)
	_, _, ok := entry.InsertInRecord(arrivalFace)
	return entry, false, ok
}

// onContentObject is the C7 satisfaction pipeline: insert into the
// store, find every PIT entry it satisfies, and send the content back
// to each of their requesters (spec.md §4.4, §4.7).
func (fw *Forwarder) onContentObject(f *face.Face, co *wire.ContentObject) {
	digest := fw.verifier.Digest(co.Raw)
	entry := fw.Store.Insert(co.Name, digest[:], co.Raw, co.Freshness())

	nameWithDigest := co.NameWithDigest(fw.verifier)
	satisfied := match.SatisfyingEntries(fw.Pit, co, nameWithDigest)

	for _, pe := range satisfied {
		pe.SetSatisfied(true)
		if pe.Prefix != nil {
			pe.Prefix.RecordHit(f.Id, 0)
		}
		for faceID := range pe.InRecords() {
			if out := fw.Faces.Lookup(faceID); out != nil {
				out.Queues.Enqueue(classForFace(out), entry.Accession)
			}
		}
		pe.ClearInRecords()
		fw.Pit.Remove(pe)
	}
}

// classForFace picks the delay class a frame destined for f should
// enqueue onto (spec.md §4.6): a local-stream face gets ASAP service;
// a datagram face gets NORMAL; a link-wrapped face gets NORMAL, or
// SLOW if it's flagged don't-send (a noisy peer being throttled).
func classForFace(f *face.Face) queue.DelayClass {
	switch linkKindOf(f) {
	case queue.LinkLocalStream:
		return queue.ASAP
	case queue.LinkWrapped:
		if f.Flags.Has(defn.FaceFlagDontSend) {
			return queue.Slow
		}
		return queue.Normal
	default:
		return queue.Normal
	}
}

func (fw *Forwarder) sendContentFrame(f *face.Face, hit *store.Entry) {
	f.Queues.Enqueue(classForFace(f), hit.Accession)
}

// onInject hands payload to the face matching dest, or drops it if no
// such face exists (spec.md §4.9; the self-registration client that
// would normally originate Inject frames is out of scope here). Inject
// is trusted-local-only (spec.md §4.9, §6): a frame arriving on
// anything but a local-IPC face is dropped outright, since otherwise
// any remote UDP/stream peer could spoof a send to an arbitrary
// registered peer address.
func (fw *Forwarder) onInject(f *face.Face, dest string, payload []byte) {
	if !f.Flags.Has(defn.FaceFlagLocal) {
		core.Log.Debug(f, "dropping inject frame from non-local face")
		return
	}
	target := fw.Faces.LookupByPeerAddr(dest)
	if target == nil {
		core.Log.Debug(f, "inject target not found", "dest", dest)
		return
	}
	if err := target.Transport.SendFrame(payload); err != nil {
		core.Log.Debug(f, "inject send failed", "err", err)
	}
}

func synthesizeNonce() []byte {
	// A forwarder-synthesized Nonce only needs to be unlikely to
	// collide with recent traffic, not cryptographically unpredictable
	// (spec.md §4.5); time-seeded bytes are sufficient here since the
	// PIT's duplicate-suppression index is the actual safety net.
	now := uint64(time.Now().UnixNano())
	return []byte{
		byte(now), byte(now >> 8), byte(now >> 16),
		byte(now >> 24), byte(now >> 32), byte(now >> 40),
	}
}
