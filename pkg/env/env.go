package env

import (
	"math"
)

// Magnus coefficients
const (
	magnusA = 17.27
	magnusB = 237.7
)

type Env struct {
	Temperature float64
	Humidity    float64
	Dewpoint    float64
}

func New(temp, humidity float64) Env {
	return Env{
		Temperature: temp,
		Humidity:    humidity,
		Dewpoint:    Dewpoint(temp, humidity),
	}
}

// Dewpoint estimates the dew point in °C from a temperature in °C and a relative
// humidity in percent. Humidity above 100 is capped at saturation. Humidity at or
// below zero has no logarithm, so the temperature is returned unchanged.
func Dewpoint(t, rh float64) float64 {
	if rh <= 0 {
		return t
	}
	if rh > 100 {
		rh = 100
	}
	alpha := (magnusA*t)/(magnusB+t) + math.Log(math.Max(rh, 1)/100)
	return (magnusB * alpha) / (magnusA - alpha)
}
