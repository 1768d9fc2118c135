// Package metrics wires prometheus collectors for the daemon's
// per-face byte counters and per-queue depth gauges, the domain
// stack's metrics concern (SPEC_FULL.md §2). No HTTP listener is
// started here — scraping the registry is an external collaborator's
// job, matching spec.md §1's boundary around a status/metrics server.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/queue"
)

// Collectors bundles the daemon's prometheus metric families.
type Collectors struct {
	FaceInBytes   *prometheus.GaugeVec
	FaceOutBytes  *prometheus.GaugeVec
	QueueDepth    *prometheus.GaugeVec
	PitEntries    prometheus.Gauge
	CsEntries     prometheus.Gauge
	PrefixEntries prometheus.Gauge
}

// NewCollectors constructs and registers every collector against reg.
func NewCollectors(reg *prometheus.Registry) *Collectors {
	c := &Collectors{
		FaceInBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ccnd",
			Subsystem: "face",
			Name:      "in_bytes_total",
			Help:      "Bytes received on a face.",
		}, []string{"face_id"}),
		FaceOutBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ccnd",
			Subsystem: "face",
			Name:      "out_bytes_total",
			Help:      "Bytes sent on a face.",
		}, []string{"face_id"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ccnd",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Pending entries in a face's outbound delay-class queue.",
		}, []string{"face_id", "class"}),
		PitEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccnd", Subsystem: "pit", Name: "entries", Help: "Live pending interest table entries.",
		}),
		CsEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccnd", Subsystem: "cs", Name: "entries", Help: "Live content store entries.",
		}),
		PrefixEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccnd", Subsystem: "fib", Name: "prefix_entries", Help: "Live name-prefix table entries.",
		}),
	}

	reg.MustRegister(c.FaceInBytes, c.FaceOutBytes, c.QueueDepth, c.PitEntries, c.CsEntries, c.PrefixEntries)
	return c
}

var classNames = map[queue.DelayClass]string{
	queue.ASAP:   "asap",
	queue.Normal: "normal",
	queue.Slow:   "slow",
}

// ObserveFace updates the per-face byte counters and queue-depth gauges
// for a single face.
func (c *Collectors) ObserveFace(f *face.Face) {
	label := faceIDLabel(f.Id)
	c.FaceInBytes.WithLabelValues(label).Set(float64(f.Transport.NInBytes()))
	c.FaceOutBytes.WithLabelValues(label).Set(float64(f.Transport.NOutBytes()))
	for class, name := range classNames {
		c.QueueDepth.WithLabelValues(label, name).Set(float64(f.Queues.Depth(class)))
	}
}

// ObserveTables updates the PIT/CS/prefix-table size gauges.
func (c *Collectors) ObserveTables(pitLen, csLen, prefixLen int) {
	c.PitEntries.Set(float64(pitLen))
	c.CsEntries.Set(float64(csLen))
	c.PrefixEntries.Set(float64(prefixLen))
}

func faceIDLabel(id defn.FaceId) string {
	return strconv.FormatUint(uint64(id), 10)
}
