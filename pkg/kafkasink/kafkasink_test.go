package kafkasink

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs chan kafka.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.msgs <- m
	}
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func receive(t *testing.T, w *fakeWriter) (kafka.Message, Message) {
	t.Helper()
	select {
	case km := <-w.msgs:
		var m Message
		if err := json.Unmarshal(km.Value, &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		return km, m
	case <-time.After(time.Second):
		t.Fatal("no message written")
	}
	return kafka.Message{}, Message{}
}

func TestSink(t *testing.T) {
	w := &fakeWriter{msgs: make(chan kafka.Message, 2)}
	s := newSink(w)
	at := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	var p condensation.Publisher = s
	p.PublishDewpoint("cellar", 12.5)
	km, m := receive(t, w)
	if string(km.Key) != "cellar" {
		t.Errorf("key: got %q, want cellar", km.Key)
	}
	if m.Kind != KindDewpoint || m.Dewpoint == nil || *m.Dewpoint != 12.5 || m.Alert != "" {
		t.Errorf("dewpoint message: got %+v", m)
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Errorf("id %q: %v", m.ID, err)
	}
	if !m.Time.Equal(at) {
		t.Errorf("time: got %v, want %v", m.Time, at)
	}

	p.PublishAlert("cellar", condensation.AlertOn)
	_, m = receive(t, w)
	if m.Kind != KindAlert || m.Alert != "ON" || m.Dewpoint != nil {
		t.Errorf("alert message: got %+v", m)
	}
}
