package prefs

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/spf13/viper"
)

// Preference keys, shared by the config file, flags and the MQTT number entities.
const (
	KeyRHThreshold       = "rh-threshold"
	KeyTemperatureOffset = "temperature-offset"
	KeyHumidityOffset    = "humidity-offset"
)

var Keys = []string{KeyRHThreshold, KeyTemperatureOffset, KeyHumidityOffset}

// ThresholdFunc is called after the humidity threshold changes. old is nil the
// first time the threshold is set.
type ThresholdFunc func(old, current *float64)

type Store struct {
	mu          sync.Mutex
	threshold   *float64
	offsets     condensation.Offsets
	onThreshold ThresholdFunc
}

func NewStore(onThreshold ThresholdFunc) *Store {
	return &Store{onThreshold: onThreshold}
}

// Load seeds the store from viper.
func (s *Store) Load() error {
	for _, key := range Keys {
		if !viper.IsSet(key) {
			continue
		}
		if err := s.Set(key, viper.GetFloat64(key)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Preferences(id string) condensation.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := condensation.DefaultPreferences()
	p.Offsets = s.offsets
	if s.threshold != nil {
		p.RHThreshold = *s.threshold
	}
	return p
}

func (s *Store) Get(key string) (float64, error) {
	p := s.Preferences("")
	switch key {
	case KeyRHThreshold:
		return p.RHThreshold, nil
	case KeyTemperatureOffset:
		return p.Offsets.Temperature, nil
	case KeyHumidityOffset:
		return p.Offsets.Humidity, nil
	}
	return 0, fmt.Errorf("unknown preference: %s", key)
}

func (s *Store) Set(key string, v float64) error {
	switch key {
	case KeyRHThreshold:
		return s.SetRHThreshold(v)
	case KeyTemperatureOffset:
		s.mu.Lock()
		s.offsets.Temperature = v
		s.mu.Unlock()
	case KeyHumidityOffset:
		s.mu.Lock()
		s.offsets.Humidity = v
		s.mu.Unlock()
	default:
		return fmt.Errorf("unknown preference: %s", key)
	}
	slog.Info("preference updated", "key", key, "value", v, "module", "prefs")
	return nil
}

func (s *Store) SetRHThreshold(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s out of range [0,100]: %v", KeyRHThreshold, v)
	}
	s.mu.Lock()
	old := s.threshold
	s.threshold = &v
	s.mu.Unlock()

	slog.Info("preference updated", "key", KeyRHThreshold, "value", v, "module", "prefs")
	if s.onThreshold != nil {
		s.onThreshold(old, &v)
	}
	return nil
}
