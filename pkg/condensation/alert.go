package condensation

import "encoding/json"

const (
	AlertOff AlertState = iota
	AlertOn
)

// AlertBand is added to the dew point to form the single boundary used for
// both transitions.
const AlertBand = 1.0

type AlertState int

func (a AlertState) String() string {
	if a == AlertOn {
		return "ON"
	}
	return "OFF"
}

func (a AlertState) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// NextAlert returns the alert state after observing temp against the published
// dew point. Both directions compare against dewpoint+AlertBand with strict
// inequalities, so a temperature exactly on the boundary holds the current
// state. Without a published dew point the state never changes.
func NextAlert(current AlertState, temp float64, dewpoint *float64) AlertState {
	if dewpoint == nil {
		return current
	}
	boundary := *dewpoint + AlertBand
	switch current {
	case AlertOff:
		if temp < boundary {
			return AlertOn
		}
	case AlertOn:
		if temp > boundary {
			return AlertOff
		}
	}
	return current
}
