package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	subscribeQoS   = 1
	connectTimeout = 10 * time.Second
	disconnectWait = 250 // milliseconds
)

// SubscriberConfig configures the connection to an external broker.
type SubscriberConfig struct {
	Broker   string
	ClientID string
}

// Subscriber consumes readings from an external broker.
type Subscriber struct {
	client paho.Client
	intake *Intake
	logger *slog.Logger

	ctx context.Context
}

// NewSubscriber creates a Subscriber. Nothing connects until Start.
func NewSubscriber(cfg SubscriberConfig, intake *Intake, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		intake: intake,
		logger: logger,
		ctx:    context.Background(),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(connectTimeout)

	// Subscribing from the connect handler restores the subscription after
	// every automatic reconnect.
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(intake.Topic(), subscribeQoS, s.onMessage)
		if token.Wait() && token.Error() != nil {
			logger.Error("mqtt subscribe failed", "topic", intake.Topic(), "error", token.Error())
			return
		}
		logger.Info("mqtt subscribed", "broker", cfg.Broker, "topic", intake.Topic())
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = paho.NewClient(opts)
	return s
}

// Start connects to the broker. Messages keep ctx's values but not its
// cancellation: a message the client acks after shutdown begins is still
// stored. Stop, which runs before storage closes, ends delivery.
func (s *Subscriber) Start(ctx context.Context) error {
	s.bind(ctx)

	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("mqtt connect: timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	s.client.Disconnect(disconnectWait)
}

func (s *Subscriber) bind(ctx context.Context) {
	s.ctx = context.WithoutCancel(ctx)
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	// Errors are logged by the intake; the broker gets its ack either way so
	// a malformed payload is not redelivered forever.
	_ = s.intake.Handle(s.ctx, msg.Topic(), msg.Payload())
}
