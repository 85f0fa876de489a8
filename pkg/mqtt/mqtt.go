package mqtt

import (
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/mikesmitty/dewalert/pkg/prefs"
	"github.com/mikesmitty/dewalert/pkg/stats"
)

type Client struct {
	client            paho.Client
	clientID          string
	topicPrefix       string
	availabilityTopic string
	qos               byte
	retained          bool
	sampleRate        int
	hassSensors       map[string]HassSensor
	devices           map[string]DeviceEntities
	mu                sync.Mutex
}

// DeviceEntities holds the unique IDs of the Home Assistant entities of one device.
type DeviceEntities struct {
	Temperature  string
	Humidity     string
	Dewpoint     string
	Trend        string
	Condensation string
	// Preference key to number entity
	Numbers map[string]string
}

func NewClient(broker *url.URL, sampleRate int) *Client {
	c := &Client{}

	var urls []*url.URL
	urls = append(urls, broker)

	hostname, _ := os.Hostname()
	hostname = strings.Split(hostname, ".")[0]
	clientID := hostname
	if clientID == "" {
		now := time.Now().UnixNano()
		sum := md5.New().Sum([]byte(strconv.FormatInt(now, 10)))
		clientID = fmt.Sprintf("%x", sum)
	}

	c.qos = 1
	c.topicPrefix = "dewalert/" + hostname
	c.availabilityTopic = c.topicPrefix + "/availability"
	c.clientID = clientID
	c.hassSensors = make(map[string]HassSensor)
	c.devices = make(map[string]DeviceEntities)
	c.sampleRate = max(sampleRate, 1)

	opts := paho.NewClientOptions()
	opts.Servers = urls
	opts.ClientID = clientID
	opts.ConnectRetry = true
	opts.ConnectTimeout = 30 * time.Second
	opts.SetWill(c.availabilityTopic, "offline", c.qos, true)

	slog.Info("connecting to mqtt", "url", broker, "clientid", clientID)
	c.client = paho.NewClient(opts)

	return c
}

func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connection failed", "error", token.Error())
		return token.Error()
	}
	c.SetAvailable(true)
	return nil
}

func (c *Client) Disconnect() {
	c.SetAvailable(false)
	c.client.Disconnect(250)
}

func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	if token := c.client.Subscribe(topic, c.qos, handler); token.Wait() && token.Error() != nil {
		slog.Error("mqtt subscription failed", "error", token.Error())
		return token.Error()
	}
	return nil
}

// RegisterDevice registers the Home Assistant entities of a monitored device.
func (c *Client) RegisterDevice(id string) DeviceEntities {
	e := DeviceEntities{
		Temperature:  c.RegisterHassSensor(c.NewHassSensor(id, "Temperature", HassSensorTemperature)),
		Humidity:     c.RegisterHassSensor(c.NewHassSensor(id, "Humidity", HassSensorHumidity)),
		Dewpoint:     c.RegisterHassSensor(c.NewHassSensor(id, "Dewpoint", HassSensorTemperature)),
		Trend:        c.RegisterHassSensor(c.NewHassSensor(id, "Temperature Trend", HassSensorTrend)),
		Condensation: c.RegisterHassSensor(c.NewHassSensor(id, "Condensation", HassBinarySensorMoisture)),
		Numbers: map[string]string{
			prefs.KeyRHThreshold:       c.RegisterHassSensor(c.NewHassSensor(id, "RH Threshold", HassNumberHumidity)),
			prefs.KeyTemperatureOffset: c.RegisterHassSensor(c.NewHassSensor(id, "Temperature Offset", HassNumberTemperature)),
			prefs.KeyHumidityOffset:    c.RegisterHassSensor(c.NewHassSensor(id, "Humidity Offset", HassNumberHumidityOffset)),
		},
	}
	c.mu.Lock()
	c.devices[id] = e
	c.mu.Unlock()
	return e
}

func (c *Client) entities(id string) (DeviceEntities, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.devices[id]
	if !ok {
		slog.Error("mqtt device not registered", "device", id, "module", "mqtt")
	}
	return e, ok
}

func (c *Client) PublishDewpoint(id string, dewpoint float64) {
	e, ok := c.entities(id)
	if !ok {
		return
	}
	slog.Debug("mqtt publishing", "field", "dewpoint", "value", dewpoint)
	c.HassPublishSensor(e.Dewpoint, strconv.FormatFloat(dewpoint, 'f', 2, 64))
}

func (c *Client) PublishAlert(id string, state condensation.AlertState) {
	e, ok := c.entities(id)
	if !ok {
		return
	}
	slog.Debug("mqtt publishing", "field", "condensation", "value", state)
	c.HassPublishSensor(e.Condensation, state.String())
}

// GetPublisher republishes calibrated readings for id, one in every sampleRate,
// and the temperature trend over the readings seen.
func (c *Client) GetPublisher(id string, events <-chan condensation.Event, src condensation.PreferenceSource, trend *stats.Trend) func() error {
	e := c.RegisterDevice(id)
	tempSample := NewSample(c.sampleRate)
	humSample := NewSample(c.sampleRate)

	return func() error {
		for ev := range events {
			p := src.Preferences(id)
			switch r := ev.(type) {
			case condensation.TemperatureReading:
				if r.ID != id {
					continue
				}
				temp := condensation.Calibrate(condensation.Scale(r.Raw), p.Offsets.Temperature)
				trend.Add(time.Now(), temp)
				if !tempSample.Ready() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "temperature", "value", temp)
				c.HassPublishSensor(e.Temperature, strconv.FormatFloat(temp, 'f', 2, 64))
				if slope, ok := trend.Slope(); ok {
					c.HassPublishSensor(e.Trend, strconv.FormatFloat(slope, 'f', 3, 64))
				}
			case condensation.HumidityReading:
				if r.ID != id || !humSample.Ready() {
					continue
				}
				hum := condensation.Calibrate(condensation.Scale(r.Raw), p.Offsets.Humidity)
				slog.Debug("mqtt publishing", "field", "humidity", "value", hum)
				c.HassPublishSensor(e.Humidity, strconv.FormatFloat(hum, 'f', 2, 64))
			}
		}
		return nil
	}
}

// SetAvailable publishes the retained availability state shared by every entity.
func (c *Client) SetAvailable(online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	slog.Info("mqtt availability", "state", state, "module", "mqtt")
	c.publish(c.availabilityTopic, true, state)
}

func (c *Client) Publish(topic string, msg string) {
	c.publish(topic, c.retained, msg)
}

func (c *Client) publish(topic string, retained bool, msg string) {
	t := c.client.Publish(topic, c.qos, retained, msg)
	go func() {
		_ = t.WaitTimeout(5 * time.Second)
		if t.Error() != nil {
			slog.Error("mqtt message publish failed", "error", t.Error(), "topic", topic)
		}
	}()
}
