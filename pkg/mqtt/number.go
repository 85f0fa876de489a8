package mqtt

import (
	"log/slog"
	"strconv"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type PreferenceSetter interface {
	Get(key string) (float64, error)
	Set(key string, v float64) error
}

// PreferenceFn subscribes to the command topics of the device's number entities
// and applies each command to store. The accepted value is echoed back on the
// state topic so Home Assistant reflects what is in effect.
func (c *Client) PreferenceFn(id string, store PreferenceSetter) func() error {
	return func() error {
		e, ok := c.entities(id)
		if !ok {
			return nil
		}
		for key, uniqueID := range e.Numbers {
			c.publishPreference(uniqueID, key, store)

			sensor, _ := c.LookupHassSensor(uniqueID)
			slog.Debug("subscribing to mqtt number", "number", key, "topic", sensor.CommandTopic)
			err := c.Subscribe(sensor.CommandTopic, c.preferenceHandler(uniqueID, key, store))
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *Client) preferenceHandler(uniqueID, key string, store PreferenceSetter) paho.MessageHandler {
	return func(client paho.Client, msg paho.Message) {
		payload := strings.TrimSpace(string(msg.Payload()))
		slog.Debug("mqtt number command received", "number", key, "command", payload, "topic", msg.Topic())
		v, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			slog.Error("invalid mqtt number command", "number", key, "command", payload, "error", err)
			return
		}
		if err := store.Set(key, v); err != nil {
			slog.Error("preference rejected", "number", key, "value", v, "error", err)
		}
		c.publishPreference(uniqueID, key, store)
	}
}

func (c *Client) publishPreference(uniqueID, key string, store PreferenceSetter) {
	v, err := store.Get(key)
	if err != nil {
		slog.Error("preference lookup failed", "number", key, "error", err)
		return
	}
	c.HassPublishSensor(uniqueID, strconv.FormatFloat(v, 'f', -1, 64))
}
