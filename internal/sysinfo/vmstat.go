package sysinfo

import (
	"bufio"
	"strconv"
	"strings"
)

// memUsage is memory in bytes as vm_stat (or the native probe) sees it.
type memUsage struct {
	Used  int64
	Total int64
}

func (m memUsage) percent() float64 {
	if m.Total <= 0 {
		return 0
	}
	p := round1(float64(m.Used) / float64(m.Total) * 100)
	if p > 100 {
		p = 100
	}
	return p
}

// parseVMStat reads vm_stat output into page counts keyed by label. The
// first line is the "Mach Virtual Memory Statistics" header and is skipped.
func parseVMStat(out string) map[string]int64 {
	stats := map[string]int64{}
	sc := bufio.NewScanner(strings.NewReader(out))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		key, val, found := strings.Cut(sc.Text(), ":")
		if !found {
			continue
		}
		val = strings.TrimSuffix(strings.TrimSpace(val), ".")
		if val == "" || strings.IndexFunc(val, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		stats[strings.TrimSpace(key)] = n
	}
	return stats
}

// memUsageFromVMStat applies the activity-monitor style accounting:
// used = active + wired + compressed, total = free + used + inactive.
func memUsageFromVMStat(stats map[string]int64, pageSize int64) (memUsage, bool) {
	free := stats["Pages free"] * pageSize
	active := stats["Pages active"] * pageSize
	inactive := stats["Pages inactive"] * pageSize
	wired := stats["Pages wired down"] * pageSize
	compressed := stats["Pages occupied by compressor"] * pageSize

	used := active + wired + compressed
	total := free + used + inactive
	if total <= 0 {
		return memUsage{}, false
	}
	return memUsage{Used: used, Total: total}, true
}

func (c *Collector) parseMemUsage(out string) (memUsage, bool) {
	return memUsageFromVMStat(parseVMStat(out), c.opts.PageSize)
}
