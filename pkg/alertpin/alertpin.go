package alertpin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mikesmitty/dewalert/pkg/condensation"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Pin drives a GPIO output high while the condensation alert is on, for a
// relay, buzzer or LED.
type Pin struct {
	pin gpio.PinOut
	mu  sync.Mutex
}

func New(name string) (*Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("alertpin: failed to find pin %s", name)
	}
	return newPin(p)
}

func newPin(p gpio.PinOut) (*Pin, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("alertpin: failed to set %s output low: %w", p, err)
	}
	return &Pin{pin: p}, nil
}

func (p *Pin) PublishDewpoint(id string, dewpoint float64) {}

func (p *Pin) PublishAlert(id string, state condensation.AlertState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	level := gpio.Low
	if state == condensation.AlertOn {
		level = gpio.High
	}
	if err := p.pin.Out(level); err != nil {
		slog.Error("failed to set alert pin", "pin", p.pin, "level", level, "error", err, "module", "alertpin")
		return
	}
	slog.Debug("alert pin set", "pin", p.pin, "level", level, "device", id, "module", "alertpin")
}

// Halt drives the pin low.
func (p *Pin) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pin.Out(gpio.Low)
}
