package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/mikesmitty/dewalert/pkg/prefs"
	"github.com/mikesmitty/dewalert/pkg/stats"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{}          { c := make(chan struct{}); close(c); return c }
func (t doneToken) Error() error                   { return t.err }

type published struct {
	topic    string
	retained bool
	payload  string
}

// fakeClient records publishes and subscriptions; every other paho.Client
// method panics through the nil embedded interface.
type fakeClient struct {
	paho.Client
	mu       sync.Mutex
	messages []published
	handlers map[string]paho.MessageHandler
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic, retained, payload.(string)})
	return doneToken{}
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[string]paho.MessageHandler)
	}
	f.handlers[topic] = callback
	return doneToken{}
}

func (f *fakeClient) last(topic string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].topic == topic {
			return f.messages[i].payload, true
		}
	}
	return "", false
}

func (f *fakeClient) count(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if m.topic == topic {
			n++
		}
	}
	return n
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func newTestClient(sampleRate int) (*Client, *fakeClient) {
	fc := &fakeClient{}
	c := &Client{
		client:            fc,
		clientID:          "hallway",
		topicPrefix:       "dewalert/hallway",
		availabilityTopic: "dewalert/hallway/availability",
		qos:               1,
		sampleRate:        sampleRate,
		hassSensors:       make(map[string]HassSensor),
		devices:           make(map[string]DeviceEntities),
	}
	return c, fc
}

func TestNewHassSensor(t *testing.T) {
	c, _ := newTestClient(1)
	tests := []struct {
		name       string
		sensorType HassSensorType
		component  string
		class      string
		unit       string
	}{
		{"Dewpoint", HassSensorTemperature, "sensor", "temperature", "°C"},
		{"Humidity", HassSensorHumidity, "sensor", "humidity", "%"},
		{"Condensation", HassBinarySensorMoisture, "binary_sensor", "moisture", ""},
		{"RH Threshold", HassNumberHumidity, "number", "", "%"},
	}
	for _, tt := range tests {
		s := c.NewHassSensor("wine cellar", tt.name, tt.sensorType)
		if s.component != tt.component || s.DeviceClass != tt.class || s.UnitOfMeasurement != tt.unit {
			t.Errorf("%s: got component=%q class=%q unit=%q", tt.name, s.component, s.DeviceClass, s.UnitOfMeasurement)
		}
		if s.Device.Name != "Wine Cellar" {
			t.Errorf("%s: device name got %q, want Wine Cellar", tt.name, s.Device.Name)
		}
		if s.AvailabilityTopic != "dewalert/hallway/availability" {
			t.Errorf("%s: availability topic got %q", tt.name, s.AvailabilityTopic)
		}
	}

	n := c.NewHassSensor("cellar", "RH Threshold", HassNumberHumidity)
	if n.CommandTopic != "dewalert/hallway/cellar/number/rh_threshold/set" {
		t.Errorf("CommandTopic: got %q", n.CommandTopic)
	}
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["min"] != 0.0 || decoded["max"] != 100.0 {
		t.Errorf("number bounds: got min=%v max=%v", decoded["min"], decoded["max"])
	}
}

func TestRegisterHassSensor(t *testing.T) {
	c, fc := newTestClient(1)
	id := c.RegisterHassSensor(c.NewHassSensor("cellar", "Condensation", HassBinarySensorMoisture))
	if id != "cellar_condensation" {
		t.Errorf("unique id: got %q", id)
	}
	c.HassAnnounceAll()
	payload, ok := fc.last("homeassistant/binary_sensor/cellar_condensation/config")
	if !ok {
		t.Fatalf("config not announced: %+v", fc.messages)
	}
	if !fc.messages[0].retained {
		t.Error("discovery config should be retained")
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg["payload_on"] != "ON" || cfg["state_topic"] != "dewalert/hallway/cellar/binary_sensor/condensation" {
		t.Errorf("config: got %v", cfg)
	}
	if err := c.HassPublishSensor("missing", "1"); err == nil {
		t.Error("HassPublishSensor on unknown sensor: expected error")
	}
}

func TestPublishDewpointAndAlert(t *testing.T) {
	c, fc := newTestClient(1)
	c.RegisterDevice("cellar")

	var p condensation.Publisher = c
	p.PublishDewpoint("cellar", 18.3067)
	p.PublishAlert("cellar", condensation.AlertOn)
	p.PublishAlert("garage", condensation.AlertOn)

	if got, _ := fc.last("dewalert/hallway/cellar/sensor/dewpoint"); got != "18.31" {
		t.Errorf("dewpoint: got %q, want 18.31", got)
	}
	if got, _ := fc.last("dewalert/hallway/cellar/binary_sensor/condensation"); got != "ON" {
		t.Errorf("alert: got %q, want ON", got)
	}
	if fc.count("dewalert/hallway/garage/binary_sensor/condensation") != 0 {
		t.Error("published for unregistered device")
	}
}

type staticPrefs struct{ p condensation.Preferences }

func (s staticPrefs) Preferences(string) condensation.Preferences { return s.p }

func TestGetPublisher(t *testing.T) {
	c, fc := newTestClient(2)
	events := make(chan condensation.Event, 8)
	src := staticPrefs{condensation.Preferences{Offsets: condensation.Offsets{Temperature: 1}}}
	run := c.GetPublisher("cellar", events, src, stats.NewTrend(10))

	for _, raw := range []int{2000, 2100, 2200, 2300} {
		events <- condensation.TemperatureReading{ID: "cellar", Raw: raw}
	}
	events <- condensation.HumidityReading{ID: "cellar", Raw: 5000}
	events <- condensation.HumidityReading{ID: "cellar", Raw: 5100}
	events <- condensation.TemperatureReading{ID: "garage", Raw: 100}
	close(events)

	if err := run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	topic := "dewalert/hallway/cellar/sensor/temperature"
	if n := fc.count(topic); n != 2 {
		t.Errorf("temperature publishes: got %d, want 2", n)
	}
	if got, _ := fc.last(topic); got != "24.00" {
		t.Errorf("temperature: got %q, want 24.00", got)
	}
	if got, _ := fc.last("dewalert/hallway/cellar/sensor/humidity"); got != "51.00" {
		t.Errorf("humidity: got %q, want 51.00", got)
	}
}

type fakeStore struct {
	values map[string]float64
}

func (f *fakeStore) Get(key string) (float64, error) {
	v, ok := f.values[key]
	if !ok {
		return 0, errors.New("unknown")
	}
	return v, nil
}

func (f *fakeStore) Set(key string, v float64) error {
	if key == prefs.KeyRHThreshold && v > 100 {
		return errors.New("out of range")
	}
	f.values[key] = v
	return nil
}

func TestPreferenceFn(t *testing.T) {
	c, fc := newTestClient(1)
	c.RegisterDevice("cellar")
	store := &fakeStore{values: map[string]float64{
		prefs.KeyRHThreshold:       10,
		prefs.KeyTemperatureOffset: 0,
		prefs.KeyHumidityOffset:    0,
	}}
	if err := c.PreferenceFn("cellar", store)(); err != nil {
		t.Fatalf("PreferenceFn: %v", err)
	}

	state := "dewalert/hallway/cellar/number/rh_threshold"
	if got, _ := fc.last(state); got != "10" {
		t.Errorf("initial threshold state: got %q, want 10", got)
	}
	handler, ok := fc.handlers[state+"/set"]
	if !ok {
		t.Fatalf("no subscription on %s/set: %v", state, fc.handlers)
	}

	handler(nil, fakeMessage{topic: state + "/set", payload: []byte(" 5 ")})
	if store.values[prefs.KeyRHThreshold] != 5 {
		t.Errorf("threshold: got %v, want 5", store.values[prefs.KeyRHThreshold])
	}
	if got, _ := fc.last(state); got != "5" {
		t.Errorf("threshold state: got %q, want 5", got)
	}

	handler(nil, fakeMessage{topic: state + "/set", payload: []byte("wet")})
	handler(nil, fakeMessage{topic: state + "/set", payload: []byte("150")})
	if store.values[prefs.KeyRHThreshold] != 5 {
		t.Errorf("invalid command applied: %v", store.values[prefs.KeyRHThreshold])
	}
	if got, _ := fc.last(state); got != "5" {
		t.Errorf("state after rejected command: got %q, want 5", got)
	}
}

func TestSetAvailable(t *testing.T) {
	c, fc := newTestClient(1)
	c.SetAvailable(false)
	if got, _ := fc.last("dewalert/hallway/availability"); got != "offline" {
		t.Errorf("availability: got %q, want offline", got)
	}
	c.SetAvailable(true)
	if got, _ := fc.last("dewalert/hallway/availability"); got != "online" {
		t.Errorf("availability: got %q, want online", got)
	}
}

func TestSample(t *testing.T) {
	s := NewSample(3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Ready())
	}
	want := []bool{false, false, true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ready() call %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if !NewSample(0).Ready() {
		t.Error("rate 0 should let every call through")
	}
}
