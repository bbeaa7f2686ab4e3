package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/metrics"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/timescale"
)

// Start begins the background cache maintenance loop. It performs an initial
// warmup (filling the full [now, now+horizon] window), then continuously:
//   - Generates new keyframes at the leading edge
//   - Evicts expired entries from the trailing edge
//   - Detects engine configuration changes and triggers cutover
//
// Blocks until ctx is cancelled.
func (c *KeyframeCache) Start(ctx context.Context) {
	c.warmup(ctx)

	ticker := time.NewTicker(c.config.Step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cache generator stopped")
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// warmup fills the cache with keyframes for [now, now+horizon].
func (c *KeyframeCache) warmup(ctx context.Context) {
	c.currentSnap = c.st.Snapshot()

	now := c.RoundToStep(time.Now())
	numFrames := int(c.config.Horizon/c.config.Step) + 1

	c.logger.Info("cache warmup starting",
		"frames", numFrames,
		"from", now.UTC().Format(time.RFC3339),
		"to", now.Add(c.config.Horizon).UTC().Format(time.RFC3339),
	)

	start := time.Now()
	generated := 0

	for i := 0; i < numFrames; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		targetTime := now.Add(time.Duration(i) * c.config.Step)
		kf, err := c.generateAt(ctx, targetTime)
		if err != nil {
			c.logger.Warn("warmup calculation failed", "timestamp", targetTime, "error", err)
			metrics.IncCacheRegenerationErrors()
			continue
		}

		c.put(kf)
		generated++
	}

	duration := time.Since(start)
	c.logger.Info("cache warmup complete",
		"generated", generated,
		"duration_ms", duration.Milliseconds(),
	)
}

// tick runs one iteration of the maintenance loop.
func (c *KeyframeCache) tick(ctx context.Context) {
	// Check for an engine configuration change.
	if c.configChanged() {
		c.performCutover(ctx)
		return
	}

	// Generate leading edge keyframe.
	c.generateLeadingEdge(ctx)

	// Evict expired entries.
	c.evictExpired()
}

// generateLeadingEdge generates the keyframe at the leading edge of the window.
func (c *KeyframeCache) generateLeadingEdge(ctx context.Context) {
	target := c.RoundToStep(time.Now().Add(c.config.Horizon))

	// Skip if already cached.
	if c.Get(target) != nil {
		return
	}

	start := time.Now()
	kf, err := c.generateAt(ctx, target)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("leading edge generation failed",
			"timestamp", target.UTC().Format(time.RFC3339),
			"error", err,
		)
		metrics.IncCacheRegenerationErrors()
		return
	}

	c.put(kf)
	metrics.ObserveCacheRegenerationDuration(duration)

	c.logger.Debug("leading edge generated",
		"timestamp", target.UTC().Format(time.RFC3339),
		"duration_ms", duration.Milliseconds(),
	)
}

// generateAt computes one keyframe: every tracked body at the given
// instant, fanned out over the calculation pool.
func (c *KeyframeCache) generateAt(ctx context.Context, t time.Time) (*Keyframe, error) {
	jdUT := julianDayUT(t)
	jdTT, _ := timescale.UTToTT(jdUT, c.st.Snapshot())

	jobs := make([]position.Job, len(c.config.Bodies))
	for i, b := range c.config.Bodies {
		jobs[i] = position.Job{JDTT: jdTT, Body: b, Flags: ephem.FlagSpeed}
	}

	results := c.pool.CalcMany(ctx, c.st, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kf := &Keyframe{
		Timestamp: c.RoundToStep(t),
		JDUT:      jdUT,
		Bodies:    make([]BodyPosition, 0, len(jobs)),
	}
	var failed int
	for i, res := range results {
		if res.Status == ephem.StatusErr {
			failed++
			continue
		}
		kf.Bodies = append(kf.Bodies, BodyPosition{
			Body:     c.config.Bodies[i],
			Lon:      res.Data[0],
			Lat:      res.Data[1],
			Dist:     res.Data[2],
			SpeedLon: res.Data[3],
			Status:   res.Status,
		})
	}
	if len(kf.Bodies) == 0 {
		return nil, fmt.Errorf("all %d body calculations failed", failed)
	}
	if failed > 0 {
		c.logger.Warn("keyframe generated with missing bodies",
			"timestamp", kf.Timestamp.UTC().Format(time.RFC3339),
			"failed", failed,
		)
	}
	return kf, nil
}
