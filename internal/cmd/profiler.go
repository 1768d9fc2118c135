package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/ccn-go/ccnd/internal/core"
)

// Profiler wraps runtime/pprof the way the teacher's fw/cmd.Profiler does,
// adapted to the ccnd Config's Core section.
type Profiler struct {
	config  *core.Config
	cpuFile *os.File
	block   *pprof.Profile
}

// NewProfiler constructs a Profiler bound to config.
func NewProfiler(config *core.Config) *Profiler {
	return &Profiler{config: config}
}

func (p *Profiler) String() string { return "profiler" }

// Start opens the configured CPU/block profile outputs, if any.
func (p *Profiler) Start() (err error) {
	if p.config.Core.CpuProfile != "" {
		p.cpuFile, err = os.Create(p.config.Core.CpuProfile)
		if err != nil {
			core.Log.Fatal(p, "unable to open output file for CPU profile", "err", err)
		}
		core.Log.Info(p, "profiling CPU", "out", p.config.Core.CpuProfile)
		pprof.StartCPUProfile(p.cpuFile)
	}

	if p.config.Core.BlockProfile != "" {
		core.Log.Info(p, "profiling blocking operations", "out", p.config.Core.BlockProfile)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}

	return
}

// Stop flushes every configured profile output.
func (p *Profiler) Stop() {
	if p.block != nil {
		f, err := os.Create(p.config.Core.BlockProfile)
		if err != nil {
			core.Log.Fatal(p, "unable to open output file for block profile", "err", err)
		}
		if err := p.block.WriteTo(f, 0); err != nil {
			core.Log.Fatal(p, "unable to write block profile", "err", err)
		}
		f.Close()
	}

	if p.config.Core.MemProfile != "" {
		f, err := os.Create(p.config.Core.MemProfile)
		if err != nil {
			core.Log.Fatal(p, "unable to open output file for memory profile", "err", err)
		}
		defer f.Close()

		core.Log.Info(p, "profiling memory", "out", p.config.Core.MemProfile)
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			core.Log.Fatal(p, "unable to write memory profile", "err", err)
		}
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
	}
}
