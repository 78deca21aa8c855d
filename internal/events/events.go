// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package events carries model lifecycle notifications between the trainer
// and the serving processes.
//
// The trainer publishes ModelBuilt after saving an artifact; servers
// subscribe and reload. Transport is selected by configuration:
//
//   - none: publishing is a no-op and subscriptions never deliver.
//   - gochannel: in-process watermill GoChannel, for single-process setups
//     and tests.
//   - nats: core NATS through watermill-nats. Every subscriber receives
//     every event unless a queue group is configured.
//
// Delivery is best-effort. A lost event is covered by the server's poll
// interval.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Transports accepted by New.
const (
	TransportNone      = "none"
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// DefaultTopic is the topic ModelBuilt events are published on.
const DefaultTopic = "marquee.model.built"

var (
	// ErrUnknownTransport is returned by New for an unsupported transport.
	ErrUnknownTransport = errors.New("events: unknown transport")

	// ErrClosed is returned when publishing on a closed bus.
	ErrClosed = errors.New("events: bus closed")
)

// ModelBuilt announces a newly saved model artifact.
type ModelBuilt struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	NumMovies int       `json:"num_movies"`
	BuiltAt   time.Time `json:"built_at"`
}

// Config selects and tunes the transport.
type Config struct {
	Transport  string
	NATSURL    string
	Topic      string
	QueueGroup string

	// NATSName identifies the client connection in NATS monitoring.
	NATSName string
}

// Bus publishes and subscribes to ModelBuilt events.
type Bus struct {
	cfg        Config
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// New opens the configured transport.
func New(cfg Config) (*Bus, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportGoChannel
	}

	b := &Bus{
		cfg:    cfg,
		logger: logging.WithComponent("events").With().Str("transport", cfg.Transport).Logger(),
	}
	wmLogger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("watermill"))

	switch cfg.Transport {
	case TransportNone:
	case TransportGoChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, wmLogger)
		b.publisher, b.subscriber = ch, ch
	case TransportNATS:
		pub, sub, err := newNATS(&cfg, wmLogger)
		if err != nil {
			return nil, err
		}
		b.publisher, b.subscriber = pub, sub
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}

	return b, nil
}

func newNATS(cfg *Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	if cfg.NATSURL == "" {
		return nil, nil, fmt.Errorf("%w: nats transport requires a URL", ErrUnknownTransport)
	}

	natsOpts := []natsgo.Option{
		natsgo.Name(cfg.NATSName),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     5 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return pub, sub, nil
}

// Topic returns the topic events are published on.
func (b *Bus) Topic() string {
	return b.cfg.Topic
}

// Enabled reports whether the bus has a transport.
func (b *Bus) Enabled() bool {
	return b.publisher != nil
}

// PublishModelBuilt announces a saved model.
func (b *Bus) PublishModelBuilt(ctx context.Context, ev ModelBuilt) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if b.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode model event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.Metadata.Set("model", ev.Name)

	err = b.publisher.Publish(b.cfg.Topic, msg)
	metrics.RecordEventPublished(b.cfg.Topic, err)
	if err != nil {
		return fmt.Errorf("publish model event: %w", err)
	}

	b.logger.Info().
		Str("model", ev.Name).
		Int("version", ev.Version).
		Str("topic", b.cfg.Topic).
		Msg("Published model event")
	return nil
}

// Subscribe delivers decoded events until ctx is canceled or the bus is
// closed. Undecodable messages are logged and dropped. With transport none
// the returned channel never delivers and closes with ctx.
func (b *Bus) Subscribe(ctx context.Context) (<-chan ModelBuilt, error) {
	out := make(chan ModelBuilt)

	if b.subscriber == nil {
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}

	messages, err := b.subscriber.Subscribe(ctx, b.cfg.Topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", b.cfg.Topic, err)
	}

	go func() {
		defer close(out)
		for msg := range messages {
			metrics.RecordEventReceived(b.cfg.Topic)

			var ev ModelBuilt
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable model event")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close releases the transport. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.publisher != nil {
		errs = append(errs, b.publisher.Close())
	}
	// GoChannel is both ends; closing it twice is a no-op.
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		errs = append(errs, b.subscriber.Close())
	}
	return errors.Join(errs...)
}
