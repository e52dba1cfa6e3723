// Package kafka announces stored readings on a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ericfisherdev/sensorhub/internal/adapter/driven/readingevent"
	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReadingPublisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per reading, keyed by reading id so that a
// reading always lands on the same partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher creates a Publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, topic), nil
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string {
	return "kafka"
}

// Publish writes the reading event and waits for the leader's acknowledgement.
func (p *Publisher) Publish(ctx context.Context, reading model.SensorReading) error {
	payload, err := readingevent.Encode(reading)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(reading.ID, 10)),
		Value: payload,
		Time:  reading.Timestamp,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write reading %d to %s: %w", reading.ID, p.topic, err)
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
