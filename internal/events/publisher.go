// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events publishes a message to Kafka for every finished
// conversion.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/pkg/types"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "deck-conversions"

const writeTimeout = 10 * time.Second

// Writer is an atomic message writer; *kafka.Writer implements it.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON payload of a conversion message.
type Event struct {
	ID          string                 `json:"id"`
	Direction   types.Direction        `json:"direction"`
	Status      types.ConversionStatus `json:"status"`
	Source      string                 `json:"source"`
	Filename    string                 `json:"filename,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Attempts    []types.Attempt        `json:"attempts,omitempty"`
	InputBytes  int64                  `json:"input_bytes"`
	OutputBytes int64                  `json:"output_bytes"`
	StartedAt   time.Time              `json:"started_at"`
	DurationMS  int64                  `json:"duration_ms"`
}

// NewEvent builds the payload for result.
func NewEvent(result types.ConversionResult) Event {
	rec := result.Record()
	return Event{
		ID:          rec.ID,
		Direction:   rec.Direction,
		Status:      rec.Status,
		Source:      rec.Source,
		Filename:    rec.Filename,
		Method:      rec.Method,
		Error:       rec.Error,
		Attempts:    rec.Attempts,
		InputBytes:  rec.InputBytes,
		OutputBytes: rec.OutputBytes,
		StartedAt:   rec.StartedAt,
		DurationMS:  rec.Duration.Milliseconds(),
	}
}

// Publisher writes conversion events keyed by conversion ID.
type Publisher struct {
	writer Writer
	log    logrus.FieldLogger
}

// NewPublisher creates a publisher writing to conf.Topic on conf.Brokers.
func NewPublisher(conf types.EventsConfig, log logrus.FieldLogger) (*Publisher, error) {
	if len(conf.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	topic := conf.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return newPublisher(w, log.WithField("topic", topic)), nil
}

func newPublisher(w Writer, log logrus.FieldLogger) *Publisher {
	return &Publisher{writer: w, log: log.WithField("component", "events")}
}

// Observe publishes result. Publishing errors are logged.
func (p *Publisher) Observe(ctx context.Context, result types.ConversionResult) {
	if err := p.Publish(ctx, NewEvent(result)); err != nil {
		p.log.WithError(err).WithField("id", result.ID).Error("Failed to publish conversion event.")
	}
}

// Publish writes ev as a single message.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ID),
		Value: value,
		Time:  ev.StartedAt,
		Headers: []kafka.Header{
			{Key: "direction", Value: []byte(ev.Direction)},
			{Key: "status", Value: []byte(ev.Status)},
		},
	})
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
