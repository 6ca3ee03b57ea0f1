package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Janitor removes stale artifacts from the workspace: loose files and HLS
// renditions whose modification time is older than the retention period.
// Artifacts younger than the retention period are never touched, so
// in-flight jobs are safe as long as retention comfortably exceeds the
// job timeout.
type Janitor struct {
	resolver  *Resolver
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewJanitor creates a janitor sweeping resolver's root every interval.
func NewJanitor(resolver *Resolver, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		resolver:  resolver,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps periodically until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := j.Sweep(time.Now())
			if removed > 0 {
				j.logger.Info("workspace sweep completed", slog.Int("removed", removed))
			}
		}
	}
}

// Sweep removes stale entries and returns how many were deleted.
// Deletion failures are logged and skipped; they never abort the sweep.
func (j *Janitor) Sweep(now time.Time) int {
	cutoff := now.Add(-j.retention)
	removed := 0

	removed += j.sweepDir(j.resolver.Root(), cutoff, false)
	removed += j.sweepDir(j.resolver.HLSRoot(), cutoff, true)

	return removed
}

// sweepDir removes entries of dir older than cutoff. When dirs is true,
// subdirectories (whole HLS renditions) are removed; otherwise only files.
func (j *Janitor) sweepDir(dir string, cutoff time.Time, dirs bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("workspace sweep read failed", slog.String("dir", dir), slog.String("error", err.Error()))
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() != dirs {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			j.logger.Warn("workspace sweep delete failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	return removed
}
