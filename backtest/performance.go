package backtest

import "fmt"

// Performance summarises a value series. Both figures are percentages;
// MaxDrawdownPct is never positive.
type Performance struct {
	ReturnPct      float64
	MaxDrawdownPct float64
}

// Measure computes the total return of values against baseline and the
// maximum drawdown from the running peak. It is a pure function.
func Measure(values []float64, baseline float64) (Performance, error) {
	if len(values) == 0 {
		return Performance{}, fmt.Errorf("%w: empty value series", ErrInvalidPrice)
	}
	if !validPrice(baseline) {
		return Performance{}, fmt.Errorf("%w: baseline %v", ErrInvalidPrice, baseline)
	}

	return Performance{
		ReturnPct:      (values[len(values)-1]/baseline - 1) * 100,
		MaxDrawdownPct: MaxDrawdown(values),
	}, nil
}

// MaxDrawdown returns min(v[t]/max(v[0..t]) - 1) * 100. A series that
// never falls below its running peak returns 0.
func MaxDrawdown(values []float64) float64 {
	var peak, worst float64
	for i, v := range values {
		if i == 0 || v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst * 100
}

// Drawdowns returns the drawdown percentage at every point of values.
func Drawdowns(values []float64) []float64 {
	out := make([]float64, len(values))
	var peak float64
	for i, v := range values {
		if i == 0 || v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = (v/peak - 1) * 100
		}
	}
	return out
}
