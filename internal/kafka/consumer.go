package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

// ErrSkip tells the consumer a message cannot ever be handled; it is logged and committed.
var ErrSkip = errors.New("skip message")

type Consumer struct {
	reader     *kafka.Reader
	log        logger.Logger
	retryFirst time.Duration
	retryMax   time.Duration
}

func NewConsumer(brokers []string, groupID, topic string, log logger.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log:        log.With("topic", topic, "group", groupID),
		retryFirst: 200 * time.Millisecond,
		retryMax:   30 * time.Second,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands each message to handler and commits it once handled. A failing handler is
// retried on the same message until it succeeds or returns ErrSkip, so the partition never
// moves past an unapplied message.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("skipping message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// handle returns nil once handler succeeds, the ErrSkip it returned, or ctx's error.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler func(context.Context, kafka.Message) error) error {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = c.retryFirst
	schedule.MaxInterval = c.retryMax
	schedule.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		err := handler(ctx, msg)
		if errors.Is(err, ErrSkip) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(schedule, ctx), func(err error, wait time.Duration) {
		c.log.Error("message handler failed", "partition", msg.Partition, "offset", msg.Offset, "retry_in", wait, "error", err)
	})
}
