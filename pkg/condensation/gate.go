package condensation

import "math"

// Baseline is the temperature/humidity pair of the last accepted recalculation.
type Baseline struct {
	Temperature float64
	Humidity    float64
}

// Gate decides whether a freshly estimated dew point replaces the published one.
//
// Rising dew points and rising temperatures are adopted right away. A falling
// humidity only abandons the held dew point once it has dropped by more than
// RHThreshold since the baseline, so that a temperature drop is what crosses
// the held value.
type Gate struct {
	RHThreshold float64
}

func (g Gate) Accept(candidate float64, published *float64, baseline *Baseline, temp, rh float64) bool {
	switch {
	case published == nil:
		return true
	case baseline == nil:
		return true
	case temp > baseline.Temperature:
		return true
	case candidate > *published:
		return true
	case centi(baseline.Humidity-rh) > centi(g.RHThreshold):
		return true
	}
	return false
}

// centi rounds to the sensor resolution, so a drop of exactly the threshold
// compares equal however the readings were represented.
func centi(v float64) float64 {
	return math.Round(v * 100)
}
