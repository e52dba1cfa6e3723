package redis

import (
	"context"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

type publishCall struct {
	channel string
	message any
}

type fakeClient struct {
	calls []publishCall
	err   error
}

func (f *fakeClient) Publish(_ context.Context, channel string, message any) *goredis.IntCmd {
	f.calls = append(f.calls, publishCall{channel: channel, message: message})
	return goredis.NewIntResult(1, f.err)
}

func (f *fakeClient) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(client, "sensor:readings")

	err := p.Publish(context.Background(), model.SensorReading{ID: 3, Measurements: model.Measurements{IR: 999}})
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "sensor:readings", client.calls[0].channel)
	payload, ok := client.calls[0].message.([]byte)
	require.True(t, ok)
	assert.Contains(t, string(payload), `"id":3`)
	assert.Contains(t, string(payload), `"ir":999`)
	assert.Equal(t, "redis", p.Name())
}

func TestPublisher_PublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	p := newPublisher(client, "sensor:readings")

	err := p.Publish(context.Background(), model.SensorReading{ID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
