package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveQualityStartsHigh(t *testing.T) {
	q := NewAdaptiveQuality()
	assert.Equal(t, QualityHigh, q.Tier())
}

func TestAdaptiveQualityDegradesUnderLoad(t *testing.T) {
	q := NewAdaptiveQuality()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		q.Observe(ctx, 30*time.Millisecond)
	}
	assert.Equal(t, QualityMedium, q.Tier())

	for i := 0; i < 50; i++ {
		q.Observe(ctx, 80*time.Millisecond)
	}
	assert.Equal(t, QualityLow, q.Tier())
}

func TestAdaptiveQualityRecoversWithHysteresis(t *testing.T) {
	q := NewAdaptiveQuality()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		q.Observe(ctx, 30*time.Millisecond)
	}
	assert.Equal(t, QualityMedium, q.Tier())

	// Hovering just below the entry threshold is not enough to recover.
	for i := 0; i < 50; i++ {
		q.Observe(ctx, 20*time.Millisecond)
	}
	assert.Equal(t, QualityMedium, q.Tier())

	for i := 0; i < 100; i++ {
		q.Observe(ctx, 5*time.Millisecond)
	}
	assert.Equal(t, QualityHigh, q.Tier())
}

func TestAdaptiveQualitySingleSpikeDoesNotDegrade(t *testing.T) {
	q := NewAdaptiveQuality()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		q.Observe(ctx, 5*time.Millisecond)
	}
	q.Observe(ctx, 150*time.Millisecond)
	assert.Equal(t, QualityHigh, q.Tier())
}
