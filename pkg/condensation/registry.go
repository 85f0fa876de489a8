package condensation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry owns one Device per device ID and dispatches events to them one at
// a time.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	prefs   PreferenceSource
	pub     Publisher
	reader  Reader
}

func NewRegistry(prefs PreferenceSource, pub Publisher, reader Reader) *Registry {
	return &Registry{
		devices: make(map[string]*Device),
		prefs:   prefs,
		pub:     pub,
		reader:  reader,
	}
}

func (r *Registry) Handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ev.Device()
	d, ok := r.devices[id]
	if !ok {
		switch ev.(type) {
		case DeviceAdded, TemperatureReading, HumidityReading:
		default:
			slog.Warn("ignoring event for unknown device", "device", id, "event", fmt.Sprintf("%T", ev), "module", "condensation")
			return
		}
		d = NewDevice(id, r.prefs, r.pub, r.reader)
		r.devices[id] = d
	}
	d.Handle(ev)
}

// Run handles events from readings and control until ctx is cancelled or the
// readings channel is closed. Control carries preference and lifecycle events.
func (r *Registry) Run(ctx context.Context, readings, control <-chan Event) error {
	slog.Info("starting condensation monitor", "module", "condensation")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-readings:
			if !ok {
				return nil
			}
			r.Handle(ev)
		case ev, ok := <-control:
			if !ok {
				control = nil
				continue
			}
			r.Handle(ev)
		}
	}
}

// Snapshot returns a copy of a device's state.
func (r *Registry) Snapshot(id string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	if !ok {
		return State{}, false
	}
	return d.State(), true
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
