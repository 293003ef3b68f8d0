package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"babelroom/observability"
)

// HealthWorker periodically samples the process's own CPU and memory usage
// and logs them together with the pipeline counters.
type HealthWorker struct {
	log      *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
}

func NewHealthWorker(log *slog.Logger, metrics *observability.Metrics,
	interval time.Duration) *HealthWorker {
	return &HealthWorker{log: log, metrics: metrics, interval: interval}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			stats := w.metrics.Snapshot()
			w.log.Info("health",
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"messages_stored", stats.MessagesStored,
				"translations_done", stats.TranslationsDone,
				"translation_fallbacks", stats.TranslationFallbacks,
				"active_sessions", stats.ActiveSessions)
		}
	}
}

// selfStats retrieves memory and CPU metrics for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
