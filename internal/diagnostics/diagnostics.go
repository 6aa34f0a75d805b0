/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/diagnostics/diagnostics.go
*/

// Package diagnostics periodically samples host memory and logs it,
// adapted from the INFO command's memory section into an ambient
// background sampler (this core has no INFO command to trigger it on
// demand).
package diagnostics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/akashmaji946/respkv/internal/logging"
)

// DefaultInterval is how often the sampler logs a reading when the
// caller doesn't override it.
const DefaultInterval = 30 * time.Second

// Run samples host virtual memory every interval and logs it via log,
// until ctx is cancelled. A failed sample is logged and skipped rather
// than treated as fatal; a transient gopsutil failure shouldn't bring
// down the sampler.
func Run(ctx context.Context, log *logging.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample(log)
		}
	}
}

func sample(log *logging.Logger) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("diagnostics: could not sample host memory: %v", err)
		return
	}
	log.Info("host memory: used=%d total=%d used_percent=%.1f%%", vm.Used, vm.Total, vm.UsedPercent)
}
