package cmhsht4x

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mikesmitty/dewalert/pkg/condensation"
	"periph.io/x/conn/v3/physic"
)

// Sensor is satisfied by *sht4x.Dev.
type Sensor interface {
	Sense(e *physic.Env) error
}

// ReadingChannel polls dev every interval and emits each measurement as a
// humidity reading followed by a temperature reading, both in centi-units.
// The returned Reader triggers an extra measurement without waiting for the
// next tick. The channel is closed when the poll loop exits.
func ReadingChannel(ctx context.Context, id string, dev Sensor, interval time.Duration) (<-chan condensation.Event, condensation.Reader, func() error) {
	c := make(chan condensation.Event, 2)
	requests := make(chan struct{}, 1)

	reader := condensation.ReaderFunc(func(target string) {
		if target != id {
			slog.Warn("read requested for unknown device", "device", target, "module", "sht4x")
			return
		}
		select {
		case requests <- struct{}{}:
		default:
			// a read is already pending
		}
	})

	ctx, cancelFunc := context.WithCancel(ctx)
	return c, reader, func() error {
		defer cancelFunc()
		defer close(c)
		done := ctx.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-requests:
				slog.Debug("on-demand read", "device", id, "module", "sht4x")
			case <-ticker.C:
			}

			var e physic.Env
			err := dev.Sense(&e)
			if err != nil {
				return fmt.Errorf("sht4x: %w", err)
			}
			hum, temp := Convert(e)
			slog.Debug("publishing reading", "temp", temp, "humidity", hum, "module", "sht4x")
			for _, ev := range []condensation.Event{
				condensation.HumidityReading{ID: id, Raw: hum},
				condensation.TemperatureReading{ID: id, Raw: temp},
			} {
				select {
				case <-done:
					return nil
				case c <- ev:
				}
			}
		}
	}
}

// Convert scales a measurement to centi-percent humidity and centi-degree
// Celsius temperature.
func Convert(e physic.Env) (hum, temp int) {
	rh := float64(e.Humidity) / float64(physic.PercentRH)
	return int(math.Round(rh * 100)), int(math.Round(e.Temperature.Celsius() * 100))
}
