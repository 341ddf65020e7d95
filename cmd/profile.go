package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/huangsam/qmetrics/internal/contract"
)

// profiler writes <prefix>.cpu.prof while a command runs and <prefix>.mem.prof when it stops.
type profiler struct {
	cfg *contract.ProfileConfig
	cpu *os.File
}

// start begins CPU profiling. It is a no-op when profiling is disabled or already running.
func (p *profiler) start() error {
	if !p.cfg.Enabled || p.cpu != nil {
		return nil
	}
	f, err := os.Create(p.cfg.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	p.cpu = f

	// stderr keeps stdout clean for reports and the MCP stdio transport
	_, _ = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", p.cfg.Prefix, p.cfg.Prefix)
	return nil
}

// stop ends CPU profiling and writes the heap profile.
func (p *profiler) stop() error {
	if p.cpu == nil {
		return nil
	}
	pprof.StopCPUProfile()
	if err := p.cpu.Close(); err != nil {
		return fmt.Errorf("could not close CPU profile: %w", err)
	}
	p.cpu = nil

	memFile, err := os.Create(p.cfg.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stderr, "Profiling complete. Inspect with 'go tool pprof %s.cpu.prof'.\n", p.cfg.Prefix)
	return nil
}
