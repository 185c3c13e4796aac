package quant

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid"
)

// NumWorkers returns the worker count used to size goroutine pools
// throughout the pipeline. It prefers the logical core count reported by
// cpuid (which also tells us whether the host can run the AVX2 remap
// fast paths some callers layer on top of this package) and falls back
// to runtime.NumCPU() when cpuid could not identify the CPU.
func NumWorkers() int {
	if cpuid.CPU.LogicalCores > 0 {
		return cpuid.CPU.LogicalCores
	}
	return runtime.NumCPU()
}

// cpuSummary formats one line describing the detected CPU topology, for
// the orchestrator to emit through the log sink at the start of Quantize.
func cpuSummary() string {
	return fmt.Sprintf("%s (%dp/%dl cores)", cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)
}
