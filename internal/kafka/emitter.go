package kafka

import (
	"context"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Emitter publishes booking lifecycle events. Publishing is fire-and-forget: failures are
// logged and counted, never returned. A nil *Emitter drops everything.
type Emitter struct {
	producer           Publisher
	bookingTopic       string
	notificationsTopic string
	log                logger.Logger
	metrics            *metrics.Metrics
	now                func() time.Time
}

func NewEmitter(producer Publisher, bookingTopic, notificationsTopic string, log logger.Logger, m *metrics.Metrics) *Emitter {
	return &Emitter{
		producer:           producer,
		bookingTopic:       bookingTopic,
		notificationsTopic: notificationsTopic,
		log:                log,
		metrics:            m,
		now:                time.Now,
	}
}

func (e *Emitter) Emit(ctx context.Context, eventType string, b *domain.Booking) {
	if e == nil || e.producer == nil {
		return
	}
	event := NewBookingEvent(eventType, b, e.now())

	e.publish(ctx, e.bookingTopic, event)
	if Notifiable[eventType] {
		e.publish(ctx, e.notificationsTopic, event)
	}
}

func (e *Emitter) publish(ctx context.Context, topic string, event BookingEvent) {
	if topic == "" {
		return
	}
	err := e.producer.Publish(ctx, topic, event.Reference, event)
	e.metrics.Published(topic, err)
	if err != nil {
		e.log.Warn("failed to publish event", "topic", topic, "type", event.Type, "reference", event.Reference, "error", err)
	}
}
