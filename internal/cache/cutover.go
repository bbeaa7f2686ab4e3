package cache

import (
	"context"
	"time"

	"github.com/astro/skycalc/internal/metrics"
)

// configChanged checks if the engine configuration has been updated since
// the cache was last built. Snapshots are immutable and replaced wholesale
// on every mutation, so pointer identity is the change signal.
func (c *KeyframeCache) configChanged() bool {
	return c.st.Snapshot() != c.currentSnap
}

// performCutover rebuilds the entire cache using the new engine
// configuration.
//
// Strategy:
//  1. Set grace period flag (old cache continues serving reads)
//  2. Build new entries map in the background
//  3. Atomic swap: replace old entries with new
//  4. Clear grace period flag
//
// During the rebuild, reads against the old cache continue uninterrupted.
func (c *KeyframeCache) performCutover(ctx context.Context) {
	snap := c.st.Snapshot()

	c.logger.Info("configuration cutover starting",
		"sidereal", snap.SiderealSet,
		"topocentric", snap.TopoSet,
		"delta_t_override", snap.DeltaTSet,
	)

	c.inGracePeriod.Store(true)
	metrics.SetCacheGracePeriodActive(true)

	start := time.Now()
	now := c.RoundToStep(time.Now())
	numFrames := int(c.config.Horizon/c.config.Step) + 1

	newEntries := make(map[time.Time]*CacheEntry, numFrames)
	generated := 0

	for i := 0; i < numFrames; i++ {
		select {
		case <-ctx.Done():
			c.inGracePeriod.Store(false)
			metrics.SetCacheGracePeriodActive(false)
			c.logger.Warn("cutover cancelled by context")
			return
		default:
		}

		targetTime := now.Add(time.Duration(i) * c.config.Step)
		kf, err := c.generateAt(ctx, targetTime)
		if err != nil {
			c.logger.Warn("cutover calculation failed",
				"timestamp", targetTime.UTC().Format(time.RFC3339),
				"error", err,
			)
			metrics.IncCacheRegenerationErrors()
			continue
		}

		key := c.RoundToStep(kf.Timestamp)
		newEntries[key] = &CacheEntry{
			Keyframe:    kf,
			GeneratedAt: time.Now(),
		}
		generated++
	}

	// Atomic swap.
	c.replaceAll(newEntries)
	c.currentSnap = snap

	c.inGracePeriod.Store(false)
	metrics.SetCacheGracePeriodActive(false)

	duration := time.Since(start)
	c.logger.Info("configuration cutover complete",
		"duration_ms", duration.Milliseconds(),
		"entries_replaced", generated,
	)
	metrics.ObserveCacheRegenerationDuration(duration)
}
