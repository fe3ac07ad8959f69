package capacity

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"photostore/internal/metrics"
)

// UsageInfo describes disk usage of the volume holding the media store.
type UsageInfo struct {
	Path        string
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
	Thresholds  Thresholds
	Status      string // "ok", "warning", "alert"
	Timestamp   time.Time
}

// Thresholds defines the warning and alert boundaries in percent used.
type Thresholds struct {
	WarnPercent  float64
	AlertPercent float64
}

// DefaultThresholds returns the boundaries a device media store warns at.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnPercent:  80.0,
		AlertPercent: 90.0,
	}
}

// Probe measures free space on the media storage volume so asset ingests
// can be warned off a nearly full device.
type Probe struct {
	thresholds Thresholds
	metrics    *metrics.Metrics
}

// NewProbe creates a probe. metrics may be nil.
func NewProbe(m *metrics.Metrics) *Probe {
	return &Probe{thresholds: DefaultThresholds(), metrics: m}
}

// GetUsage reads disk usage for the given path and records the gauge.
func (p *Probe) GetUsage(path string) (UsageInfo, error) {
	if path == "" {
		return UsageInfo{}, fmt.Errorf("capacity probe path cannot be empty")
	}

	stat, err := disk.Usage(path)
	if err != nil {
		return UsageInfo{}, fmt.Errorf("disk usage for %s: %w", path, err)
	}

	info := UsageInfo{
		Path:        path,
		Total:       stat.Total,
		Used:        stat.Used,
		Free:        stat.Free,
		UsedPercent: stat.UsedPercent,
		Thresholds:  p.thresholds,
		Status:      p.evaluateStatus(stat.UsedPercent),
		Timestamp:   time.Now(),
	}

	if p.metrics != nil {
		p.metrics.StorageUsedPercent.WithLabelValues(path).Set(stat.UsedPercent)
	}
	return info, nil
}

func (p *Probe) evaluateStatus(usedPercent float64) string {
	switch {
	case usedPercent >= p.thresholds.AlertPercent:
		return "alert"
	case usedPercent >= p.thresholds.WarnPercent:
		return "warning"
	default:
		return "ok"
	}
}

// Monitor probes the path at the given interval until stop is closed.
func (p *Probe) Monitor(path string, interval time.Duration, stop <-chan struct{}, callback func(UsageInfo, error)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				callback(p.GetUsage(path))
			case <-stop:
				return
			}
		}
	}()
}
