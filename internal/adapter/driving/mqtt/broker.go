package mqtt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

// hookTimeout bounds one reading's storage inside the broker's read loop.
const hookTimeout = 5 * time.Second

// Broker is an in-process MQTT broker whose publishes on the intake topic are
// stored as readings.
type Broker struct {
	server *mochi.Server
}

// NewBroker creates a broker listening on addr. Devices connect without
// credentials.
func NewBroker(addr string, intake *Intake, logger *slog.Logger) (*Broker, error) {
	server := mochi.New(&mochi.Options{
		Logger: logger.With("component", "mqtt-broker"),
	})

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("add auth hook: %w", err)
	}
	if err := server.AddHook(&intakeHook{intake: intake, ctx: context.Background()}, nil); err != nil {
		return nil, fmt.Errorf("add intake hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "sensorhub-tcp",
		Address: addr,
	})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("add tcp listener: %w", err)
	}

	return &Broker{server: server}, nil
}

// Start begins accepting connections. It does not block.
func (b *Broker) Start() error {
	if err := b.server.Serve(); err != nil {
		return fmt.Errorf("serve mqtt: %w", err)
	}
	return nil
}

// Close stops the listeners and disconnects all clients.
func (b *Broker) Close() error {
	return b.server.Close()
}

// intakeHook forwards inbound publishes to the intake.
type intakeHook struct {
	mochi.HookBase
	intake *Intake
	ctx    context.Context
}

func (h *intakeHook) ID() string {
	return "sensorhub-intake"
}

func (h *intakeHook) Provides(b byte) bool {
	return bytes.Contains([]byte{mochi.OnPublish}, []byte{b})
}

// OnPublish runs synchronously in the publishing client's read loop, so a
// slow store stalls that client only, and never longer than hookTimeout. The
// packet is never rejected; other subscribers still receive it.
func (h *intakeHook) OnPublish(_ *mochi.Client, pk packets.Packet) (packets.Packet, error) {
	ctx, cancel := context.WithTimeout(h.ctx, hookTimeout)
	defer cancel()
	_ = h.intake.Handle(ctx, pk.TopicName, pk.Payload)
	return pk, nil
}
