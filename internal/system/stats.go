package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage is a snapshot of host and process resources
type ResourceUsage struct {
	TotalMemory     uint64
	AvailableMemory uint64
	ProcessRSS      uint64
	ProcessCPU      float64
}

// SampleResources reads host memory and the current process footprint.
func SampleResources() (ResourceUsage, error) {
	var usage ResourceUsage

	vm, err := mem.VirtualMemory()
	if err != nil {
		return usage, fmt.Errorf("virtual memory: %w", err)
	}
	usage.TotalMemory = vm.Total
	usage.AvailableMemory = vm.Available

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return usage, fmt.Errorf("process: %w", err)
	}
	if info, err := proc.MemoryInfo(); err == nil {
		usage.ProcessRSS = info.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		usage.ProcessCPU = cpu
	}

	return usage, nil
}

// DecodedSize estimates the resident size of one decoded RGBA image of w x h
func DecodedSize(w, h int) uint64 {
	return uint64(w) * uint64(h) * 4
}

// FitsInMemory reports whether need bytes leave at least a quarter of the
// currently available memory free.
func (u ResourceUsage) FitsInMemory(need uint64) bool {
	return need <= u.AvailableMemory/4*3
}

// MiB formats a byte count
func MiB(b uint64) string {
	return fmt.Sprintf("%.1f MiB", float64(b)/(1<<20))
}
