// Package redis announces stored readings on a Redis pub/sub channel.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/sensorhub/internal/adapter/driven/readingevent"
	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReadingPublisher = (*Publisher)(nil)

type pubsubClient interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Close() error
}

// Publisher publishes each stored reading as a JSON message. Nothing is kept
// in Redis; subscribers that are not listening miss the message.
type Publisher struct {
	client  pubsubClient
	channel string
}

// NewPublisher connects to the Redis server at addr and verifies it responds.
func NewPublisher(ctx context.Context, addr, channel string) (*Publisher, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("redis channel must not be empty")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return newPublisher(client, channel), nil
}

func newPublisher(client pubsubClient, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string {
	return "redis"
}

// Publish sends the reading event to the channel.
func (p *Publisher) Publish(ctx context.Context, reading model.SensorReading) error {
	payload, err := readingevent.Encode(reading)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish reading %d to %s: %w", reading.ID, p.channel, err)
	}

	return nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
