package httpapi

import (
	"net/http"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemStats reports host and process level resource usage.
func (h *handler) systemStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
	}

	if percents, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(percents) > 0 {
		stats["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		stats["memory"] = map[string]interface{}{
			"total_bytes":  vm.Total,
			"used_bytes":   vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}
	if info, err := host.InfoWithContext(r.Context()); err == nil {
		stats["host"] = map[string]interface{}{
			"hostname":       info.Hostname,
			"os":             info.OS,
			"platform":       info.Platform,
			"uptime_seconds": info.Uptime,
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats["heap_alloc_bytes"] = ms.HeapAlloc

	writeJSON(w, http.StatusOK, stats)
}
