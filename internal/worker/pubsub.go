package worker

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

const (
	defaultMaxOutstanding = 2
	defaultMessageTimeout = 20 * time.Minute
)

// PubSubHandler feeds import job messages from a subscription into a
// Dispatcher.
type PubSubHandler struct {
	client         *pubsub.Client
	subscriber     *pubsub.Subscriber
	subscription   string
	dispatcher     *Dispatcher
	messageTimeout time.Duration
	maxAttempts    int
	logger         zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
	// MaxOutstanding caps messages in flight. Zero means 2.
	MaxOutstanding int
	// MessageTimeout bounds one job. Zero means 20m.
	MessageTimeout time.Duration
	// MaxDeliveryAttempts acks a failing message once the subscription has
	// delivered it this many times. Zero disables the cut-off. Delivery
	// attempts are only reported when the subscription has a dead letter
	// policy.
	MaxDeliveryAttempts int
}

// NewPubSubHandler connects to Pub/Sub and prepares the subscriber.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	if cfg.MaxOutstanding <= 0 {
		cfg.MaxOutstanding = defaultMaxOutstanding
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = defaultMessageTimeout
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstanding
	subscriber.ReceiveSettings.MaxExtension = cfg.MessageTimeout + time.Minute

	return &PubSubHandler{
		client:         client,
		subscriber:     subscriber,
		subscription:   cfg.SubscriptionName,
		dispatcher:     cfg.Dispatcher,
		messageTimeout: cfg.MessageTimeout,
		maxAttempts:    cfg.MaxDeliveryAttempts,
		logger:         cfg.Logger,
	}, nil
}

// Start receives messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscription).
		Dur("message_timeout", h.messageTimeout).
		Msg("receiving import jobs")

	return h.subscriber.Receive(ctx, h.handleMessage)
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().Str("message_id", msg.ID).Logger()
	if msg.DeliveryAttempt != nil {
		logger = logger.With().Int("delivery_attempt", *msg.DeliveryAttempt).Logger()
	}

	ctx, cancel := context.WithTimeout(ctx, h.messageTimeout)
	defer cancel()

	dispatched := h.dispatcher.Dispatch(ctx, msg.Data)
	outcome := dispatched.AfterAttempts(msg.DeliveryAttempt, h.maxAttempts)
	if outcome != dispatched {
		logger.Error().Msg("giving up on message after repeated failures")
	}

	logger.Debug().Stringer("outcome", outcome).Msg("settled pubsub message")
	if outcome == Nack {
		msg.Nack()
		return
	}
	msg.Ack()
}
