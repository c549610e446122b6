// internal/sysinfo/sysinfo.go
package sysinfo

import (
	"context"
	"log/slog"
	"time"

	"github.com/alscos/clawdash/internal/shell"
)

// TempUnavailable is reported when no temperature source answered.
const TempUnavailable = "N/A (install osx-cpu-temp)"

// DefaultPageSize is the vm_stat page size on Apple Silicon.
const DefaultPageSize = 16384

const (
	cmdHostname   = "hostname"
	cmdKernel     = "uname -s"
	cmdProductVer = "sw_vers -productVersion"
	cmdKernelRel  = "uname -r"
	cmdArch       = "uname -m"
	cmdUptime     = "uptime"
	cmdCPUSum     = "ps -A -o %cpu | awk '{s+=$1} END {print s}'"
	cmdNCPU       = "sysctl -n hw.ncpu"
	cmdNproc      = "nproc"
	cmdMemSize    = "sysctl -n hw.memsize"
	cmdVMStat     = "vm_stat"
	cmdDiskPct    = "df -h / | tail -1 | awk '{print $5}'"
	cmdDiskAvail  = "df -h / | tail -1 | awk '{print $4}'"
	cmdTempHelper = "which osx-cpu-temp > /dev/null && osx-cpu-temp 2>/dev/null"
	cmdTempPriv   = "sudo -n powermetrics -n 1 -i 1 --samplers smc 2>/dev/null | grep 'CPU die temperature' | awk '{print $4}'"
	cmdLoadSysctl = "sysctl -n vm.loadavg"
	cmdLoadProc   = "cat /proc/loadavg"
)

// Snapshot is the system half of /api/health. Nil fields are unknown and
// are left out of the JSON.
type Snapshot struct {
	Timestamp string `json:"timestamp"`

	Hostname  *string `json:"hostname,omitempty"`
	OS        *string `json:"os,omitempty"`
	OSVersion *string `json:"os_version,omitempty"`
	Arch      *string `json:"arch,omitempty"`
	Uptime    *string `json:"uptime,omitempty"`

	CPUUsagePercent *float64 `json:"cpu_usage_percent,omitempty"`
	CPUCores        *int     `json:"cpu_cores,omitempty"`

	MemoryTotalGB     *float64 `json:"memory_total_gb,omitempty"`
	MemoryUsedPercent *float64 `json:"memory_used_percent,omitempty"`
	MemoryUsedGB      *float64 `json:"memory_used_gb,omitempty"`

	DiskUsagePercent *float64 `json:"disk_usage_percent,omitempty"`
	DiskAvailable    *string  `json:"disk_available,omitempty"`

	CPUTemp     string  `json:"cpu_temp"`
	LoadAverage *string `json:"load_average,omitempty"`
}

type Options struct {
	// PageSize converts vm_stat page counts to bytes. Zero means DefaultPageSize.
	PageSize int64
	// NativeFallback appends a gopsutil probe to every chain.
	NativeFallback bool
	// PrivilegedTemp allows the sudo -n powermetrics temperature probe.
	PrivilegedTemp bool
	Logger         *slog.Logger
}

type Collector struct {
	run    shell.Runner
	opts   Options
	log    *slog.Logger
	native nativeProbes
	now    func() time.Time
}

func NewCollector(run shell.Runner, opts Options) *Collector {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		run:  run,
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

// Snapshot runs every probe chain once, in order. It never fails; fields
// nobody could answer stay nil.
func (c *Collector) Snapshot(ctx context.Context) Snapshot {
	start := time.Now()
	n := c.native
	snap := Snapshot{
		Timestamp: c.now().Format(time.RFC3339),
	}

	snap.Hostname = first(ctx, chain(c, n.hostname, textProbe(c, cmdHostname)))
	snap.OS = first(ctx, chain(c, n.os, textProbe(c, cmdKernel)))
	snap.OSVersion = first(ctx, chain(c, n.osVersion,
		textProbe(c, cmdProductVer),
		textProbe(c, cmdKernelRel),
	))
	snap.Arch = first(ctx, chain(c, n.arch, textProbe(c, cmdArch)))
	snap.Uptime = first(ctx, chain(c, n.uptime, textProbe(c, cmdUptime)))

	snap.CPUUsagePercent = first(ctx, chain(c, n.cpuPercent, shellProbe(c, cmdCPUSum, parsePercentSum)))
	snap.CPUCores = first(ctx, chain(c, n.cpuCores,
		shellProbe(c, cmdNCPU, parseCount),
		shellProbe(c, cmdNproc, parseCount),
	))

	if total := first(ctx, chain(c, n.memTotal, shellProbe(c, cmdMemSize, parseBytes))); total != nil {
		snap.MemoryTotalGB = ptr(round1(toGB(*total)))
	}
	if mu := first(ctx, chain(c, n.memUsage, shellProbe(c, cmdVMStat, c.parseMemUsage))); mu != nil {
		snap.MemoryUsedPercent = ptr(mu.percent())
		snap.MemoryUsedGB = ptr(round1(toGB(mu.Used)))
	}

	snap.DiskUsagePercent = first(ctx, chain(c, n.diskPercent, shellProbe(c, cmdDiskPct, parseDiskPercent)))
	snap.DiskAvailable = first(ctx, chain(c, n.diskAvailable, textProbe(c, cmdDiskAvail)))

	temps := []probe[string]{textProbe(c, cmdTempHelper)}
	if c.opts.PrivilegedTemp {
		temps = append(temps, shellProbe(c, cmdTempPriv, parseCelsius))
	}
	snap.CPUTemp = TempUnavailable
	if t := first(ctx, chain(c, n.cpuTemp, temps...)); t != nil {
		snap.CPUTemp = *t
	}

	snap.LoadAverage = first(ctx, chain(c, n.loadAverage,
		shellProbe(c, cmdLoadSysctl, parseLoadAverage),
		shellProbe(c, cmdLoadProc, parseLoadAverage),
	))

	c.log.Debug("system snapshot collected", "took", time.Since(start), "native", c.opts.NativeFallback)
	return snap
}
