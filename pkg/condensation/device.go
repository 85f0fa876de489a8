package condensation

import (
	"log/slog"

	"github.com/mikesmitty/dewalert/pkg/env"
)

// State is everything known about one monitored device.
//
// Temperature and Humidity are the last readings in engineering units before
// offsets are applied; offsets are applied to both on every evaluation so a
// changed offset takes effect on the next reading. Baseline and Dewpoint are
// calibrated values.
type State struct {
	Temperature *float64
	Humidity    *float64
	Baseline    *Baseline
	Dewpoint    *float64
	Alert       AlertState
}

func (s State) clone() State {
	c := State{Alert: s.Alert}
	c.Temperature = copyFloat(s.Temperature)
	c.Humidity = copyFloat(s.Humidity)
	c.Dewpoint = copyFloat(s.Dewpoint)
	if s.Baseline != nil {
		b := *s.Baseline
		c.Baseline = &b
	}
	return c
}

type Device struct {
	id     string
	state  State
	prefs  PreferenceSource
	pub    Publisher
	reader Reader
}

func NewDevice(id string, prefs PreferenceSource, pub Publisher, reader Reader) *Device {
	return &Device{
		id:     id,
		prefs:  prefs,
		pub:    pub,
		reader: reader,
	}
}

func (d *Device) ID() string {
	return d.id
}

func (d *Device) State() State {
	return d.state.clone()
}

// Handle processes a single event to completion.
func (d *Device) Handle(ev Event) {
	switch e := ev.(type) {
	case TemperatureReading:
		t := Scale(e.Raw)
		d.state.Temperature = &t
		slog.Debug("temperature reading", "device", d.id, "raw", e.Raw, "module", "condensation")
		d.evaluate()
	case HumidityReading:
		rh := Scale(e.Raw)
		d.state.Humidity = &rh
		slog.Debug("humidity reading", "device", d.id, "raw", e.Raw, "module", "condensation")
		d.evaluate()
	case PreferenceChanged:
		d.preferenceChanged(e.Old, e.New)
	case DeviceAdded:
		slog.Info("device added", "device", d.id, "module", "condensation")
		d.pub.PublishAlert(d.id, d.state.Alert)
	case DeviceRemoved:
		slog.Info("device removed", "device", d.id, "module", "condensation")
		d.state.Temperature = nil
		d.state.Humidity = nil
	default:
		slog.Warn("unhandled event", "device", d.id, "event", ev, "module", "condensation")
	}
}

func (d *Device) preferenceChanged(old, updated *float64) {
	if old == nil || updated == nil {
		slog.Debug("ignoring initial threshold preference", "device", d.id, "module", "condensation")
		return
	}
	if *old == *updated {
		return
	}
	slog.Info("humidity threshold changed, requesting sensor read", "device", d.id, "old", *old, "new", *updated, "module", "condensation")
	d.reader.RequestRead(d.id)
}

func (d *Device) evaluate() {
	if d.state.Temperature == nil || d.state.Humidity == nil {
		slog.Debug("waiting for both readings", "device", d.id, "module", "condensation")
		return
	}
	p := d.prefs.Preferences(d.id)
	temp := Calibrate(*d.state.Temperature, p.Offsets.Temperature)
	rh := Calibrate(*d.state.Humidity, p.Offsets.Humidity)

	candidate := env.New(temp, rh).Dewpoint
	gate := Gate{RHThreshold: p.RHThreshold}
	if gate.Accept(candidate, d.state.Dewpoint, d.state.Baseline, temp, rh) {
		d.state.Baseline = &Baseline{Temperature: temp, Humidity: rh}
		d.state.Dewpoint = &candidate
		slog.Debug("dewpoint accepted", "device", d.id, "temp", temp, "humidity", rh, "dewpoint", candidate, "module", "condensation")
		d.pub.PublishDewpoint(d.id, candidate)
	} else {
		slog.Debug("dewpoint held", "device", d.id, "temp", temp, "humidity", rh, "candidate", candidate, "dewpoint", *d.state.Dewpoint, "module", "condensation")
	}

	next := NextAlert(d.state.Alert, temp, d.state.Dewpoint)
	if next != d.state.Alert {
		slog.Info("condensation alert changed", "device", d.id, "alert", next, "temp", temp, "dewpoint", *d.state.Dewpoint, "module", "condensation")
		d.state.Alert = next
		d.pub.PublishAlert(d.id, next)
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
