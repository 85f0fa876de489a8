package condensation

import (
	"encoding/json"
	"testing"
)

func TestNextAlert(t *testing.T) {
	const eps = 0.01
	dew := fp(10)
	tests := []struct {
		name    string
		current AlertState
		temp    float64
		dew     *float64
		want    AlertState
	}{
		{"off on boundary", AlertOff, 11, dew, AlertOff},
		{"on on boundary", AlertOn, 11, dew, AlertOn},
		{"off below boundary", AlertOff, 11 - eps, dew, AlertOn},
		{"on above boundary", AlertOn, 11 + eps, dew, AlertOff},
		{"off above boundary", AlertOff, 11 + eps, dew, AlertOff},
		{"on below boundary", AlertOn, 11 - eps, dew, AlertOn},
		// The off transition uses dew+1, not dew-1.
		{"on between dew and boundary", AlertOn, 10.5, dew, AlertOn},
		{"off without dewpoint", AlertOff, -40, nil, AlertOff},
		{"on without dewpoint", AlertOn, 40, nil, AlertOn},
	}
	for _, tt := range tests {
		if got := NextAlert(tt.current, tt.temp, tt.dew); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAlertStateJSON(t *testing.T) {
	b, err := json.Marshal(map[string]AlertState{"alert": AlertOn})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"alert":"ON"}` {
		t.Errorf("Marshal: got %s", b)
	}
}
