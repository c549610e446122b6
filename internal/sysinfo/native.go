package sysinfo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// nativeProbes answers the same questions as the shell chains straight from
// the kernel via gopsutil. They are the last resort on hosts without the
// macOS tools (sysctl hw.*, vm_stat, sw_vers).
type nativeProbes struct{}

func (nativeProbes) info(ctx context.Context) (*host.InfoStat, bool) {
	hi, err := host.InfoWithContext(ctx)
	if err != nil || hi == nil {
		return nil, false
	}
	return hi, true
}

func (n nativeProbes) hostname(ctx context.Context) (string, bool) {
	hi, ok := n.info(ctx)
	if !ok {
		return "", false
	}
	return parseText(hi.Hostname)
}

func (n nativeProbes) os(ctx context.Context) (string, bool) {
	hi, ok := n.info(ctx)
	if !ok || hi.OS == "" {
		return "", false
	}
	// match `uname -s` spelling: linux -> Linux
	return strings.ToUpper(hi.OS[:1]) + hi.OS[1:], true
}

func (n nativeProbes) osVersion(ctx context.Context) (string, bool) {
	hi, ok := n.info(ctx)
	if !ok {
		return "", false
	}
	if v, ok := parseText(hi.PlatformVersion); ok {
		return v, true
	}
	return parseText(hi.KernelVersion)
}

func (n nativeProbes) arch(ctx context.Context) (string, bool) {
	hi, ok := n.info(ctx)
	if !ok {
		return "", false
	}
	return parseText(hi.KernelArch)
}

func (nativeProbes) uptime(ctx context.Context) (string, bool) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil || secs == 0 {
		return "", false
	}
	return formatUptime(secs), true
}

func (nativeProbes) cpuPercent(ctx context.Context) (float64, bool) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(pct) == 0 {
		return 0, false
	}
	return round1(pct[0]), true
}

func (nativeProbes) cpuCores(ctx context.Context) (int, bool) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (nativeProbes) memTotal(ctx context.Context) (int64, bool) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm.Total == 0 {
		return 0, false
	}
	return int64(vm.Total), true
}

func (nativeProbes) memUsage(ctx context.Context) (memUsage, bool) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm.Total == 0 || vm.Available > vm.Total {
		return memUsage{}, false
	}
	return memUsage{
		Used:  int64(vm.Total - vm.Available),
		Total: int64(vm.Total),
	}, true
}

func (nativeProbes) diskPercent(ctx context.Context) (float64, bool) {
	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return 0, false
	}
	return parseDiskPercent(strconv.FormatFloat(round1(du.UsedPercent), 'f', -1, 64))
}

func (nativeProbes) diskAvailable(ctx context.Context) (string, bool) {
	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%.0fGi", toGB(int64(du.Free))), true
}

func (nativeProbes) cpuTemp(ctx context.Context) (string, bool) {
	// partial readings come back together with a warnings error
	temps, _ := host.SensorsTemperaturesWithContext(ctx)
	if len(temps) == 0 {
		return "", false
	}
	maxC := -1.0
	for _, t := range temps {
		if t.Temperature > maxC {
			maxC = t.Temperature
		}
	}
	if maxC <= 0 {
		return "", false
	}
	return fmt.Sprintf("%.1f°C", maxC), true
}

func (nativeProbes) loadAverage(ctx context.Context) (string, bool) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%.2f %.2f %.2f", avg.Load1, avg.Load5, avg.Load15), true
}

func formatUptime(secs uint64) string {
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60
	switch {
	case days == 1:
		return fmt.Sprintf("up 1 day, %d:%02d", hours, mins)
	case days > 1:
		return fmt.Sprintf("up %d days, %d:%02d", days, hours, mins)
	default:
		return fmt.Sprintf("up %d:%02d", hours, mins)
	}
}
