package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fekuna/marine-listing-service/internal/notification"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	BufferSize   int
	MaxAttempts  uint
	DrainTimeout time.Duration
}

// Dispatcher decouples state transitions from notification delivery: Notify only enqueues,
// and a background loop publishes with bounded retries.
type Dispatcher struct {
	publisher notification.Publisher
	queue     chan notification.Event
	cfg       Config
	logger    logger.ZapLogger
	done      chan struct{}
}

var _ notification.Notifier = (*Dispatcher)(nil)

func NewDispatcher(publisher notification.Publisher, cfg Config, log logger.ZapLogger) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan notification.Event, cfg.BufferSize),
		cfg:       cfg,
		logger:    log,
		done:      make(chan struct{}),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, userID string, eventType notification.EventType, payload map[string]any) {
	event := notification.Event{
		ID:         uuid.New().String(),
		UserID:     userID,
		EventType:  eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Error("notification queue full, event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(eventType)),
			zap.String("user_id", userID),
		)
	}
}

// Start runs the delivery loop until ctx is done, then drains what is left within DrainTimeout.
func (d *Dispatcher) Start(ctx context.Context) {
	defer close(d.done)
	d.logger.Info("Starting notification dispatcher")
	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("Stopping notification dispatcher")
			return
		case event := <-d.queue:
			if ctx.Err() != nil {
				d.drain(event)
				d.logger.Info("Stopping notification dispatcher")
				return
			}
			d.deliver(ctx, event)
		}
	}
}

// Wait blocks until Start has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) drain(pending ...notification.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DrainTimeout)
	defer cancel()
	for _, event := range pending {
		d.deliver(ctx, event)
	}
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event notification.Event) {
	value, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("Failed to marshal notification", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, d.publisher.Publish(ctx, event.UserID, value)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.cfg.MaxAttempts))
	if err != nil {
		d.logger.Error("Failed to deliver notification",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.EventType)),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("notification delivered", zap.String("event_id", event.ID), zap.String("event_type", string(event.EventType)))
}
