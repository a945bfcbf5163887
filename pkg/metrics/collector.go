// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of warp.
//
// warp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Goroutines tracks the number of live goroutines.
	Goroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "goroutines",
		Help:      "Number of goroutines at the last collection",
	})

	// MemoryAllocBytes tracks heap bytes allocated and still in use.
	MemoryAllocBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "memory_alloc_bytes",
		Help:      "Heap bytes allocated and in use at the last collection",
	})

	// UptimeSeconds tracks how long the process has run.
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the process started",
	})

	started = time.Now()
)

// CollectOnce samples process resource gauges. Short-lived commands call it
// right before exporting.
func CollectOnce() {
	if !IsEnabled() {
		return
	}

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	MemoryAllocBytes.Set(float64(memStats.Alloc))

	UptimeSeconds.Set(time.Since(started).Seconds())
}
