package panel

import (
	"bytes"
	"strconv"

	"github.com/alscos/clawdash/internal/sysinfo"
)

// FormatLines renders the panel block: one "KEY: value" line per known
// field, terminated by an empty line which the firmware treats as commit.
func FormatLines(s sysinfo.Snapshot) string {
	var b bytes.Buffer
	line := func(key, val string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(val)
		b.WriteByte('\n')
	}

	if s.Hostname != nil {
		line("HOST", *s.Hostname)
	}
	if s.CPUUsagePercent != nil {
		line("CPU", pct(*s.CPUUsagePercent))
	}
	if s.MemoryUsedPercent != nil {
		mem := pct(*s.MemoryUsedPercent)
		if s.MemoryUsedGB != nil && s.MemoryTotalGB != nil {
			mem += " " + num(*s.MemoryUsedGB) + "/" + num(*s.MemoryTotalGB) + "G"
		}
		line("MEM", mem)
	}
	if s.DiskUsagePercent != nil {
		disk := pct(*s.DiskUsagePercent)
		if s.DiskAvailable != nil {
			disk += " " + *s.DiskAvailable + " free"
		}
		line("DISK", disk)
	}
	if s.CPUTemp != "" && s.CPUTemp != sysinfo.TempUnavailable {
		line("TEMP", s.CPUTemp)
	}
	if b.Len() == 0 {
		return ""
	}
	b.WriteByte('\n') // commit
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func pct(v float64) string {
	return num(v) + "%"
}
