// Package sysinfo reports host and process resource usage for health checks.
package sysinfo

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time view of the host and this process.
// Fields that could not be read are left zero.
type Snapshot struct {
	Hostname          string  `json:"hostname"`
	OS                string  `json:"os"`
	CPUCount          int     `json:"cpu_count"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryTotalBytes  uint64  `json:"memory_total_bytes"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	ProcessRSSBytes   uint64  `json:"process_rss_bytes"`
	Goroutines        int     `json:"goroutines"`
}

// Collect reads a snapshot. CPU usage is measured since the previous call
// so Collect never blocks on sampling.
func Collect(ctx context.Context) Snapshot {
	s := Snapshot{
		OS:         runtime.GOOS,
		CPUCount:   runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		s.Hostname = info.Hostname
		if info.Platform != "" {
			s.OS = info.Platform
		}
	}
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		s.CPUPercent = cpuPercent[0]
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryTotalBytes = memInfo.Total
		s.MemoryUsedPercent = memInfo.UsedPercent
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil {
			s.ProcessRSSBytes = memInfo.RSS
		}
	}

	return s
}
