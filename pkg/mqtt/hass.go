package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	HassSensorGeneric HassSensorType = iota
	HassSensorTemperature
	HassSensorHumidity
	HassSensorTrend
	HassBinarySensorMoisture
	HassNumberHumidity
	HassNumberTemperature
	HassNumberHumidityOffset
)

type HassSensorType int

type HassSensor struct {
	component         string
	configTopic       string
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	Device            HassDevice `json:"device,omitempty"`
	DeviceClass       string     `json:"device_class,omitempty"`
	StateTopic        string     `json:"state_topic"`
	CommandTopic      string     `json:"command_topic,omitempty"`
	AvailabilityTopic string     `json:"availability_topic,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	Icon              string     `json:"icon,omitempty"`
	PayloadOn         string     `json:"payload_on,omitempty"`
	PayloadOff        string     `json:"payload_off,omitempty"`
	Min               *float64   `json:"min,omitempty"`
	Max               *float64   `json:"max,omitempty"`
	Step              float64    `json:"step,omitempty"`
	Mode              string     `json:"mode,omitempty"`
}

type HassDevice struct {
	Name        string   `json:"name,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	Model       string   `json:"model,omitempty"`
}

func (c *Client) HomeAssistant() error {
	c.HassAnnounceAll()
	topic := "homeassistant/status"
	return c.Subscribe(topic, func(client paho.Client, msg paho.Message) {
		payload := string(msg.Payload())
		slog.Info("homeassistant status watcher", "status", payload)
		if payload == "online" {
			c.HassAnnounceAll()
		}
	})
}

func (c *Client) HassAnnounceAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Info("announcing homeassistant sensors")
	for _, sensor := range c.hassSensors {
		c.HassAnnounceSensor(sensor)
	}
}

func (c *Client) NewHassSensor(device, name string, sensorType HassSensorType) HassSensor {
	component := "sensor"
	var deviceClass, unit, icon string
	var lo, hi *float64
	var step float64
	switch sensorType {
	case HassSensorTemperature:
		deviceClass = "temperature"
		unit = "°C"
	case HassSensorHumidity:
		deviceClass = "humidity"
		unit = "%"
	case HassSensorTrend:
		unit = "°C/min"
		icon = "mdi:thermometer-chevron-down"
	case HassBinarySensorMoisture:
		component = "binary_sensor"
		deviceClass = "moisture"
	case HassNumberHumidity:
		component = "number"
		unit = "%"
		lo, hi, step = float(0), float(100), 0.5
	case HassNumberTemperature:
		component = "number"
		unit = "°C"
		lo, hi, step = float(-10), float(10), 0.1
	case HassNumberHumidityOffset:
		component = "number"
		unit = "%"
		lo, hi, step = float(-10), float(10), 0.1
	}
	stateTopic := fmt.Sprintf("%s/%s/%s/%s", c.topicPrefix, slugify(device), component, slugify(name))
	s := HassSensor{
		component: component,
		Name:      name,
		Device: HassDevice{
			Name:  cases.Title(language.English).String(device),
			Model: "SHT4x condensation monitor",
		},
		StateTopic:        stateTopic,
		AvailabilityTopic: c.availabilityTopic,
		DeviceClass:       deviceClass,
		UnitOfMeasurement: unit,
		Icon:              icon,
		Min:               lo,
		Max:               hi,
		Step:              step,
	}
	switch component {
	case "binary_sensor":
		s.PayloadOn = "ON"
		s.PayloadOff = "OFF"
	case "number":
		s.CommandTopic = stateTopic + "/set"
		s.Mode = "box"
	}
	return s
}

func (c *Client) RegisterHassSensor(sensor HassSensor) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sensor.UniqueID == "" {
		sensor.UniqueID = slugify(sensor.Device.Name + "_" + sensor.Name)
	}
	if len(sensor.Device.Identifiers) == 0 {
		sensor.Device.Identifiers = []string{slugify(sensor.Device.Name)}
	}
	if sensor.component == "" {
		sensor.component = "sensor"
	}
	sensor.configTopic = "homeassistant/" + sensor.component + "/" + sensor.UniqueID + "/config"
	c.hassSensors[sensor.UniqueID] = sensor
	return sensor.UniqueID
}

func (c *Client) LookupHassSensor(uniqueID string) (HassSensor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sensor, ok := c.hassSensors[uniqueID]
	return sensor, ok
}

func (c *Client) HassAnnounceSensor(sensor HassSensor) {
	payload, err := json.Marshal(sensor)
	if err != nil {
		slog.Error("json marshal error", "error", err, "module", "mqtt", "sensor", sensor)
		return
	}
	c.publish(sensor.configTopic, true, string(payload))
}

func (c *Client) HassPublishSensor(uniqueID, state string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sensor, ok := c.hassSensors[uniqueID]
	if !ok {
		return fmt.Errorf("sensor not found: %s", uniqueID)
	}
	c.Publish(sensor.StateTopic, state)
	return nil
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

func float(v float64) *float64 {
	return &v
}
