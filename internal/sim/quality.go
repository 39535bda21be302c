package sim

import (
	"context"
	"time"

	"github.com/mkrencik/droppit/internal/logger"
)

// QualityTier is a discrete presentation level. The simulation itself is
// unaffected; renderers read the tier to shed visual cost.
type QualityTier int

const (
	QualityHigh QualityTier = iota
	QualityMedium
	QualityLow
)

func (t QualityTier) String() string {
	switch t {
	case QualityHigh:
		return "high"
	case QualityMedium:
		return "medium"
	case QualityLow:
		return "low"
	}
	return "unknown"
}

const (
	// emaAlpha weights the newest frame cost in the moving average.
	emaAlpha = 0.1

	// Tier thresholds on the smoothed frame cost, with hysteresis: a tier
	// only recovers once the average falls well below its entry point.
	mediumEnterCost = 24 * time.Millisecond
	lowEnterCost    = 48 * time.Millisecond
	recoverFactor   = 0.6
)

// AdaptiveQuality tracks an exponential moving average of frame cost and
// maps it onto quality tiers. Frame-goroutine use only.
type AdaptiveQuality struct {
	ema  time.Duration
	tier QualityTier
}

func NewAdaptiveQuality() *AdaptiveQuality {
	return &AdaptiveQuality{tier: QualityHigh}
}

// Tier returns the current presentation tier.
func (q *AdaptiveQuality) Tier() QualityTier { return q.tier }

// Average returns the smoothed frame cost.
func (q *AdaptiveQuality) Average() time.Duration { return q.ema }

// Observe folds one frame's cost into the average and adjusts the tier.
func (q *AdaptiveQuality) Observe(ctx context.Context, cost time.Duration) {
	if q.ema == 0 {
		q.ema = cost
	} else {
		q.ema = time.Duration(float64(q.ema)*(1-emaAlpha) + float64(cost)*emaAlpha)
	}

	next := q.tier
	switch q.tier {
	case QualityHigh:
		if q.ema >= lowEnterCost {
			next = QualityLow
		} else if q.ema >= mediumEnterCost {
			next = QualityMedium
		}
	case QualityMedium:
		if q.ema >= lowEnterCost {
			next = QualityLow
		} else if q.ema < time.Duration(float64(mediumEnterCost)*recoverFactor) {
			next = QualityHigh
		}
	case QualityLow:
		if q.ema < time.Duration(float64(lowEnterCost)*recoverFactor) {
			next = QualityMedium
		}
	}

	if next != q.tier {
		logger.FromContext(ctx).Info(LogMsgQualityTierChange,
			"from", q.tier.String(), "to", next.String(), "avg_frame_ms", q.ema.Milliseconds())
		q.tier = next
	}
}
