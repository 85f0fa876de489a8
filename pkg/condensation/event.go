package condensation

// Event is one of the inputs a device reacts to. The set is closed: readings
// from the sensor, a threshold preference change, and the device lifecycle.
type Event interface {
	Device() string
	event()
}

// TemperatureReading carries a temperature in centi-degrees Celsius.
type TemperatureReading struct {
	ID  string
	Raw int
}

// HumidityReading carries a relative humidity in centi-percent.
type HumidityReading struct {
	ID  string
	Raw int
}

// PreferenceChanged reports a change of the humidity recalculation threshold.
// Old is nil while the preference is first being set up.
type PreferenceChanged struct {
	ID  string
	Old *float64
	New *float64
}

type DeviceAdded struct {
	ID string
}

type DeviceRemoved struct {
	ID string
}

func (e TemperatureReading) Device() string { return e.ID }
func (e HumidityReading) Device() string    { return e.ID }
func (e PreferenceChanged) Device() string  { return e.ID }
func (e DeviceAdded) Device() string        { return e.ID }
func (e DeviceRemoved) Device() string      { return e.ID }

func (TemperatureReading) event() {}
func (HumidityReading) event()    {}
func (PreferenceChanged) event()  {}
func (DeviceAdded) event()        {}
func (DeviceRemoved) event()      {}
