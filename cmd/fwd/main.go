// Command fwd runs the forwarding daemon: it loads a YAML
// configuration, builds the FIB/PCCT/timer/worker set it describes,
// and serves until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sys/unix"

	"github.com/ndnfwd/fwd/core"
	"github.com/ndnfwd/fwd/fw"
)

// logID identifies this command's own log lines, for the events
// emitted before a Daemon (which names itself) exists yet.
type logID string

func (id logID) String() string { return string(id) }

const mainLog logID = "fwd"

var rootCmd = &cobra.Command{
	Use:   "fwd CONFIG-FILE",
	Short: "NDN dataplane forwarding daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
		core.Log.Warn(mainLog, "automaxprocs failed to adjust GOMAXPROCS", "error", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfig(args[0])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	core.Log.Info(mainLog, "starting forwarder",
		"workers", cfg.Workers,
		"pcctCapacity", humanize.Comma(int64(cfg.PcctCapacity)),
		"csResidentCapacity", humanize.Comma(int64(cfg.CsResidentCapacity)),
		"codelTarget", cfg.CoDelTarget,
		"faces", len(cfg.Faces),
		"routes", len(cfg.Routes),
	)

	d, err := fw.NewDaemon(cfg)
	if err != nil {
		return fmt.Errorf("building daemon: %w", err)
	}

	if err := pinWorkers(cfg.CorePinning); err != nil {
		core.Log.Warn(mainLog, "core-pinning failed, continuing unpinned", "error", err)
	}

	d.Start()
	core.Log.Info(d, "forwarder running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	core.Log.Info(d, "received signal, shutting down", "signal", sig)

	d.Stop()
	core.Log.Info(d, "forwarder stopped")
	return nil
}

// pinWorkers binds this process's scheduling affinity to the union of
// the configured core list, so the OS scheduler keeps every worker
// goroutine local to its intended core's cache and NUMA node. Go's
// own goroutine scheduler, not this call, decides which worker
// goroutine lands on which pinned core; full one-goroutine-per-core
// isolation needs GOMAXPROCS sized to match and runtime.LockOSThread
// in each worker's own goroutine, left to the caller driving the face
// layer.
func pinWorkers(cores []int) error {
	if len(cores) == 0 {
		return nil
	}
	var set unix.CPUSet
	for _, c := range cores {
		set.Set(c)
	}
	return unix.SchedSetaffinity(0, &set)
}
