package cmd

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ccn-go/ccnd/internal/core"
	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/face"
	"github.com/ccn-go/ccnd/internal/forwarder"
)

// Ccnd bundles the running daemon: its config, its Forwarder, and the
// listeners accepting new faces. Mirrors the teacher's yanfd-instance
// wrapper (construct, Start, Stop) around the assembled subsystem.
type Ccnd struct {
	daemon    *core.Daemon
	fw        *forwarder.Forwarder
	reg       *prometheus.Registry
	listeners []closer
}

type closer interface{ Close() }

func (c *Ccnd) String() string { return "ccnd" }

// NewCcnd constructs a daemon bound to cfg, wiring every table and
// engine package (internal/forwarder) plus a prometheus registry for
// internal/metrics.
func NewCcnd(cfg *core.Config) *Ccnd {
	reg := prometheus.NewRegistry()
	fw := forwarder.New(cfg.Store.Capacity, reg)
	return &Ccnd{
		daemon: core.NewDaemon(cfg),
		fw:     fw,
		reg:    reg,
	}
}

// Start brings up every configured listener and the forwarder's event
// loop and housekeeping. Listener bind failures are fatal at startup
// (spec.md §7: "cannot bind the IPC listener" is an unrecoverable
// startup failure), anything afterward is logged and the face is
// simply not offered.
func (c *Ccnd) Start() {
	cfg := c.daemon.Config

	sockName := cfg.DefaultSockName()
	sl, err := face.ListenStream("unix", sockName, defn.Local)
	if err != nil {
		core.Log.Fatal(c, "unable to bind IPC listener", "path", sockName, "err", err)
	}
	c.listeners = append(c.listeners, sl)
	go sl.Run(func(tr face.Transport) {
		if _, err := c.fw.AddFace(tr, defn.FaceFlagStream|defn.FaceFlagLocal); err != nil {
			core.Log.Warn(c, "unable to enroll accepted stream face", "err", err)
		}
	})
	c.daemon.OnShutdown(sl.Close)

	udpScope := defn.Local
	bindAddr := "127.0.0.1:" + strconv.Itoa(cfg.Faces.UDPPort)
	if cfg.Faces.NonLocalUDP {
		udpScope = defn.NonLocal
		bindAddr = "0.0.0.0:" + strconv.Itoa(cfg.Faces.UDPPort)
	}
	ul, err := face.ListenUDP("udp4", bindAddr, udpScope)
	if err != nil {
		core.Log.Fatal(c, "unable to bind UDP listener", "addr", bindAddr, "err", err)
	}
	c.listeners = append(c.listeners, ul)
	go ul.Run(func(tr face.Transport) {
		if _, err := c.fw.AddFace(tr, 0); err != nil {
			core.Log.Warn(c, "unable to enroll accepted UDP face", "err", err)
		}
	})
	c.daemon.OnShutdown(ul.Close)

	c.fw.Start()
	c.daemon.OnShutdown(c.fw.Stop)

	core.Log.Info(c, "ccnd started", "sock", sockName, "udp", bindAddr)
}

// Stop tears the daemon down: every shutdown hook registered during
// Start runs in reverse order (internal/core.Daemon.Shutdown).
func (c *Ccnd) Stop() {
	c.daemon.Shutdown()
	core.Log.Info(c, "ccnd stopped")
}

// MetricsHandler returns an http.Handler exposing the daemon's
// prometheus registry, for a caller that wants to run its own status
// server — ccnd itself never starts one (spec.md §1's boundary around
// an external management/metrics collaborator).
func (c *Ccnd) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
