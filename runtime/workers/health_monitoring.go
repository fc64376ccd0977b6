package workers

import (
	"context"
	"dm-lab/runtime"
	"log/slog"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// IStatsSource exposes the live connection counters of the gateway.
type IStatsSource interface {
	Stats() runtime.Stats
}

type Health struct {
	runtime.Stats
	Goroutines int       `json:"goroutines"`
	CPU        float64   `json:"cpuPercent"`
	RAM        float32   `json:"ramPercent"`
	SampledAt  time.Time `json:"sampledAt"`
}

// HealthMonitoringWorker samples the process and the gateway every metricInterval.
type HealthMonitoringWorker struct {
	mu             sync.RWMutex
	log            *slog.Logger
	source         IStatsSource
	metricInterval time.Duration
	last           Health
}

func NewHealthMonitoringWorker(log *slog.Logger, source IStatsSource, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{log: log, source: source, metricInterval: metricInterval}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.sample(self)

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.sample(self)
		}
	}
}

// Snapshot returns the last sample. Gateway counters are always fresh.
func (w *HealthMonitoringWorker) Snapshot() Health {
	w.mu.RLock()
	health := w.last
	w.mu.RUnlock()
	health.Stats = w.source.Stats()
	return health
}

func (w *HealthMonitoringWorker) sample(p *process.Process) {
	health := Health{
		Stats:      w.source.Stats(),
		Goroutines: goruntime.NumGoroutine(),
		SampledAt:  time.Now().UTC(),
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
	}
	ram, err := p.MemoryPercent()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
	}
	health.CPU, health.RAM = cpu, ram

	w.mu.Lock()
	w.last = health
	w.mu.Unlock()

	w.log.Debug("Health sample",
		"connections", health.Connections,
		"rooms", health.Rooms,
		"goroutines", health.Goroutines,
		"cpu", cpu,
		"ram", ram)
}
