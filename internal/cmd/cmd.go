// Package cmd assembles the ccnd cobra command: config loading,
// profiling flags, and the construct/Start/wait-for-signal/Stop
// lifecycle, mirroring the teacher's fw/cmd.CmdYaNFD.
package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccn-go/ccnd/internal/core"
)

var config = core.DefaultConfig()

// Command is the root cobra command for the ccnd binary.
var Command = &cobra.Command{
	Use:   "ccnd [CONFIG-FILE]",
	Short: "CCN forwarding daemon",
	Args:  cobra.MaximumNArgs(1),
	Run:   run,
}

func init() {
	Command.Flags().StringVar(&config.Core.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	Command.Flags().StringVar(&config.Core.MemProfile, "mem-profile", "", "Write memory profile to file")
	Command.Flags().StringVar(&config.Core.BlockProfile, "block-profile", "", "Write block profile to file")
}

func run(_ *cobra.Command, args []string) {
	if len(args) == 1 {
		configfile := args[0]
		config.Core.BaseDir = filepath.Dir(configfile)
		if err := core.ReadYaml(config, configfile); err != nil {
			core.Log.Fatal(core.ForwarderName, "unable to read config file", "path", configfile, "err", err)
		}
	}
	config.ApplyEnv()

	if level, err := core.ParseLevel(config.Core.LogLevel); err == nil {
		core.Log = core.NewLogger(level)
	}

	profiler := NewProfiler(config)
	if err := profiler.Start(); err != nil {
		core.Log.Fatal(core.ForwarderName, "unable to start profiler", "err", err)
	}

	daemon := NewCcnd(config)
	daemon.Start()

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	received := <-sigChannel
	core.Log.Info(core.ForwarderName, "received signal - exiting", "signal", received)

	daemon.Stop()
	profiler.Stop()
}
