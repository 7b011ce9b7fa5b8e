package backtest

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []float64
		baseline float64
		ret      float64
		mdd      float64
	}{
		{"flat", []float64{100, 100, 100}, 100, 0, 0},
		{"rising", []float64{100, 110, 121}, 100, 21, 0},
		{"dip and recover", []float64{100, 120, 90, 130}, 100, 30, -25},
		{"two dips keeps worst", []float64{100, 80, 100, 95}, 100, -5, -20},
		{"baseline differs from first", []float64{1000, 1060, 1020, 1190}, 1000, 19, (1020.0/1060.0 - 1) * 100},
		{"single point", []float64{50}, 100, -50, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Measure(tt.values, tt.baseline)
			require.NoError(t, err)
			assert.InDelta(t, tt.ret, got.ReturnPct, 1e-9)
			assert.InDelta(t, tt.mdd, got.MaxDrawdownPct, 1e-9)
		})
	}
}

func TestMeasureErrors(t *testing.T) {
	t.Parallel()

	_, err := Measure(nil, 100)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = Measure([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestDrawdowns(t *testing.T) {
	t.Parallel()

	got := Drawdowns([]float64{100, 120, 90, 130})
	require.Len(t, got, 4)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, -25, got[2], 1e-12)
	assert.InDelta(t, 0, got[3], 1e-12)
	assert.InDelta(t, MaxDrawdown([]float64{100, 120, 90, 130}), -25, 1e-12)
}

func TestPerformanceProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	values := gen.SliceOf(gen.Float64Range(1, 1000)).SuchThat(func(v []float64) bool { return len(v) > 0 })

	properties.Property("drawdown is never positive", prop.ForAll(
		func(v []float64) bool {
			return MaxDrawdown(v) <= 0
		},
		values,
	))

	properties.Property("drawdown is zero exactly when non-decreasing", prop.ForAll(
		func(v []float64) bool {
			nonDecreasing := true
			for i := 1; i < len(v); i++ {
				if v[i] < v[i-1] {
					nonDecreasing = false
					break
				}
			}
			return (MaxDrawdown(v) == 0) == nonDecreasing
		},
		values,
	))

	properties.Property("measure is idempotent", prop.ForAll(
		func(v []float64, base float64) bool {
			a, errA := Measure(v, base)
			b, errB := Measure(v, base)
			return errA == nil && errB == nil && a == b
		},
		values,
		gen.Float64Range(1, 1000),
	))

	properties.TestingRun(t)
}
