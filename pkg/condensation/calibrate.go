package condensation

// DefaultRHThreshold is the humidity drop, in percent, that forces a dew point
// recalculation while humidity is falling.
const DefaultRHThreshold = 10.0

// Offsets are user supplied additive corrections for each quantity.
type Offsets struct {
	Temperature float64
	Humidity    float64
}

type Preferences struct {
	RHThreshold float64
	Offsets     Offsets
}

// DefaultPreferences returns the preferences of a device nobody has configured.
func DefaultPreferences() Preferences {
	return Preferences{RHThreshold: DefaultRHThreshold}
}

func Calibrate(raw, offset float64) float64 {
	return raw + offset
}

// Scale converts a raw centi-unit reading (centi-degrees, centi-percent) to
// engineering units.
func Scale(raw int) float64 {
	return float64(raw) / 100
}
