package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/observability"
)

const validPayload = `{"ds18b20_temp":36.6,"dht11_temp":24.1,"humidity":55.5,"ir":51234,"bpm":72,"bpm_avg":70.5}`

type fakeIngester struct {
	stored []model.Measurements
	err    error

	lastCtxErr      error
	lastHasDeadline bool
}

func (f *fakeIngester) StoreReading(ctx context.Context, m model.Measurements) (model.SensorReading, error) {
	f.lastCtxErr = ctx.Err()
	_, f.lastHasDeadline = ctx.Deadline()
	if f.err != nil {
		return model.SensorReading{}, f.err
	}
	f.stored = append(f.stored, m)
	return model.SensorReading{ID: int64(len(f.stored)), Measurements: m}, nil
}

func newTestIntake(ing ReadingIngester) *Intake {
	return NewIntake("sensor/data", ing, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDecodePayload(t *testing.T) {
	m, err := decodePayload([]byte(validPayload))
	require.NoError(t, err)
	assert.Equal(t, model.Measurements{
		DS18B20Temp: 36.6,
		DHT11Temp:   24.1,
		Humidity:    55.5,
		IR:          51234,
		BPM:         72,
		BPMAvg:      70.5,
	}, m)
}

func TestDecodePayload_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "not json", payload: `hello`},
		{name: "missing fields", payload: `{"ds18b20_temp":36.6,"bpm":72}`, want: "dht11_temp, humidity, ir, bpm_avg"},
		{name: "fractional ir", payload: `{"ds18b20_temp":1,"dht11_temp":1,"humidity":1,"ir":2.5,"bpm":1,"bpm_avg":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePayload([]byte(tt.payload))
			require.ErrorIs(t, err, ErrInvalidPayload)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestIntake_Handle(t *testing.T) {
	ing := &fakeIngester{}
	in := newTestIntake(ing)

	require.NoError(t, in.Handle(context.Background(), "sensor/data", []byte(validPayload)))
	require.NoError(t, in.Handle(context.Background(), "other/topic", []byte(validPayload)))

	assert.Len(t, ing.stored, 1, "only the configured topic is ingested")
}

func TestIntake_Handle_Errors(t *testing.T) {
	ing := &fakeIngester{}
	in := newTestIntake(ing)

	err := in.Handle(context.Background(), "sensor/data", []byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, ing.stored)

	boom := errors.New("store down")
	in = newTestIntake(&fakeIngester{err: boom})
	assert.ErrorIs(t, in.Handle(context.Background(), "sensor/data", []byte(validPayload)), boom)
}

func TestIntake_CountsIngested(t *testing.T) {
	metrics := observability.NewMetrics()
	in := NewIntake("sensor/data", &fakeIngester{}, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, in.Handle(context.Background(), "sensor/data", []byte(validPayload)))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "sensor_readings_ingested_total" {
			found = true
			assert.Equal(t, 1.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestIntakeHook_OnPublish(t *testing.T) {
	ing := &fakeIngester{}
	hook := &intakeHook{intake: newTestIntake(ing), ctx: context.Background()}

	assert.True(t, hook.Provides(mochi.OnPublish))
	assert.False(t, hook.Provides(mochi.OnConnect))

	pk := packets.Packet{TopicName: "sensor/data", Payload: []byte(validPayload)}
	out, err := hook.OnPublish(nil, pk)
	require.NoError(t, err)
	assert.Equal(t, pk.TopicName, out.TopicName)
	assert.Len(t, ing.stored, 1)

	_, err = hook.OnPublish(nil, packets.Packet{TopicName: "sensor/data", Payload: []byte(`garbage`)})
	assert.NoError(t, err, "bad payloads are dropped, not rejected")
	assert.Len(t, ing.stored, 1)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return subscribeQoS }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestSubscriber_OnMessage(t *testing.T) {
	ing := &fakeIngester{}
	sub := NewSubscriber(SubscriberConfig{Broker: "tcp://127.0.0.1:1883", ClientID: "test"},
		newTestIntake(ing), slog.New(slog.NewTextHandler(io.Discard, nil)))

	sub.onMessage(nil, fakeMessage{topic: "sensor/data", payload: []byte(validPayload)})
	sub.onMessage(nil, fakeMessage{topic: "sensor/data", payload: []byte(`{`)})

	assert.Len(t, ing.stored, 1)
}

func TestIntakeHook_OnPublish_BoundsStorage(t *testing.T) {
	ing := &fakeIngester{}
	hook := &intakeHook{intake: newTestIntake(ing), ctx: context.Background()}

	_, err := hook.OnPublish(nil, packets.Packet{TopicName: "sensor/data", Payload: []byte(validPayload)})
	require.NoError(t, err)
	require.Len(t, ing.stored, 1)
	assert.True(t, ing.lastHasDeadline, "storage from the read loop must carry a deadline")
	assert.NoError(t, ing.lastCtxErr)
}

func TestSubscriber_OnMessage_AfterShutdownBegins(t *testing.T) {
	ing := &fakeIngester{}
	sub := NewSubscriber(SubscriberConfig{Broker: "tcp://127.0.0.1:1883", ClientID: "test"},
		newTestIntake(ing), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	sub.bind(ctx)
	cancel()

	sub.onMessage(nil, fakeMessage{topic: "sensor/data", payload: []byte(validPayload)})

	require.Len(t, ing.stored, 1, "an acked message is stored even after cancellation")
	assert.NoError(t, ing.lastCtxErr)
}
