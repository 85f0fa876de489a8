package kafkasink

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/segmentio/kafka-go"
)

const writeTimeout = 5 * time.Second

const (
	KindDewpoint = "dewpoint"
	KindAlert    = "alert"
)

// Message is the JSON body of every record written to the topic.
type Message struct {
	ID       string    `json:"id"`
	Device   string    `json:"device"`
	Kind     string    `json:"kind"`
	Dewpoint *float64  `json:"dewpoint,omitempty"`
	Alert    string    `json:"alert,omitempty"`
	Time     time.Time `json:"time"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes dew point and alert publications to a Kafka topic, keyed by
// device so each device's events stay ordered within a partition.
type Sink struct {
	w   messageWriter
	log *slog.Logger
	now func() time.Time
}

// New returns a Sink backed by an asynchronous writer, so publishing never
// waits on the brokers. Delivery failures are logged.
func New(brokers []string, topic string) *Sink {
	log := slog.Default().With(slog.String("module", "kafka"))
	return newSink(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: writeTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("kafka write failed", "error", err, "messages", len(messages))
			}
		},
	})
}

func newSink(w messageWriter) *Sink {
	return &Sink{
		w:   w,
		log: slog.Default().With(slog.String("module", "kafka")),
		now: time.Now,
	}
}

func (s *Sink) PublishDewpoint(id string, dewpoint float64) {
	s.write(Message{Device: id, Kind: KindDewpoint, Dewpoint: &dewpoint})
}

func (s *Sink) PublishAlert(id string, state condensation.AlertState) {
	s.write(Message{Device: id, Kind: KindAlert, Alert: state.String()})
}

func (s *Sink) Close() error {
	return s.w.Close()
}

func (s *Sink) write(m Message) {
	m.ID = uuid.NewString()
	m.Time = s.now().UTC()
	value, err := json.Marshal(m)
	if err != nil {
		s.log.Error("json marshal error", "error", err, "message", m)
		return
	}
	err = s.w.WriteMessages(context.Background(), kafka.Message{Key: []byte(m.Device), Value: value})
	if err != nil {
		s.log.Error("kafka write failed", "error", err, "kind", m.Kind, "device", m.Device)
	}
}
