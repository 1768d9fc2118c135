// Package reap implements the periodic reapers (spec.md §4.10, C10):
// idle datagram-face expiry, PIT expiry, prefix-entry retirement, and
// stale-content eviction, each driven by internal/sched.
package reap

import (
	"time"

	"github.com/ccn-go/ccnd/internal/core"
	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/propagate"
	"github.com/ccn-go/ccnd/internal/sched"
	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
)

// Config bounds how often and how much each reaper does per pass.
type Config struct {
	InactivityCheckInterval time.Duration
	PitCheckInterval        time.Duration
	PrefixRetireInterval    time.Duration
	StoreCleanInterval      time.Duration
	StoreCleanBatch         int // spec.md §4.4: at most 500 entries per pass
}

// DefaultConfig matches the teacher's conservative periodic-housekeeping
// cadence: frequent enough to bound memory growth, infrequent enough
// not to dominate CPU under load.
func DefaultConfig() Config {
	return Config{
		InactivityCheckInterval: 15 * time.Second,
		PitCheckInterval:        time.Second,
		PrefixRetireInterval:    time.Minute,
		StoreCleanInterval:      5 * time.Second,
		StoreCleanBatch:         500,
	}
}

// Reapers bundles every periodic housekeeping task against the live
// tables, scheduled onto sch.
type Reapers struct {
	cfg    Config
	sch    *sched.Scheduler
	faces  *face.Table
	pit    *table.Pit
	prefix *table.PrefixTable
	cs     *store.Store
}

// New constructs the reaper set; call Start to register its scheduled
// callbacks.
func New(cfg Config, sch *sched.Scheduler, faces *face.Table, pit *table.Pit, prefix *table.PrefixTable, cs *store.Store) *Reapers {
	return &Reapers{cfg: cfg, sch: sch, faces: faces, pit: pit, prefix: prefix, cs: cs}
}

// Start registers all four reaper callbacks on the scheduler.
func (r *Reapers) Start() {
	r.sch.Schedule(r.cfg.InactivityCheckInterval, sched.EventInactivityCheck, r.inactivityPass)
	r.sch.Schedule(r.cfg.PitCheckInterval, sched.EventReap, r.pitPass)
	r.sch.Schedule(r.cfg.PrefixRetireInterval, sched.EventReap, r.prefixPass)
	r.sch.Schedule(r.cfg.StoreCleanInterval, sched.EventCleanStore, r.storePass)
}

// inactivityPass retires on-demand datagram faces idle for two
// consecutive passes (spec.md §4.10).
func (r *Reapers) inactivityPass(kind sched.EventKind, cancelled bool) time.Duration {
	if cancelled {
		return 0
	}
	var toRemove []defn.FaceId
	r.faces.Range(func(f *face.Face) {
		if !f.Flags.Has(defn.FaceFlagPermanent) && !f.Flags.Has(defn.FaceFlagStream) && f.MarkIdlePass() {
			toRemove = append(toRemove, f.Id)
		}
	})
	for _, id := range toRemove {
		core.Log.Debug(logComponent("reap"), "retiring idle face", "faceid", id)
		r.faces.Remove(id)
	}
	return r.cfg.InactivityCheckInterval
}

// pitPass expires pending interests whose lifetime has elapsed and
// penalizes the response-time estimate of every face that never
// answered (spec.md §4.3, §4.5).
func (r *Reapers) pitPass(kind sched.EventKind, cancelled bool) time.Duration {
	if cancelled {
		return 0
	}
	expired := r.pit.ExpireOlderThan(time.Now())
	for _, e := range expired {
		for range propagate.AdvanceOnTimeout(e) {
			if e.Prefix != nil {
				e.Prefix.RecordMiss()
			}
		}
	}
	return r.cfg.PitCheckInterval
}

// prefixPass retires unused leaf prefix-table entries (spec.md §4.3).
func (r *Reapers) prefixPass(kind sched.EventKind, cancelled bool) time.Duration {
	if cancelled {
		return 0
	}
	n := r.prefix.Retire(r.pit)
	if n > 0 {
		core.Log.Debug(logComponent("reap"), "retired prefix entries", "count", n)
	}
	return r.cfg.PrefixRetireInterval
}

// storePass cleans at most StoreCleanBatch stale content store entries
// per pass (spec.md §4.4).
func (r *Reapers) storePass(kind sched.EventKind, cancelled bool) time.Duration {
	if cancelled {
		return 0
	}
	cleaned := r.cs.CleanPass(r.cfg.StoreCleanBatch)
	if cleaned > 0 {
		core.Log.Debug(logComponent("reap"), "cleaned stale content", "count", cleaned)
	}
	return r.cfg.StoreCleanInterval
}

// logComponent lets reap's internal passes satisfy core.Component
// without needing a full Face or other domain object as the log
// subject.
type logComponent string

func (c logComponent) String() string { return string(c) }
