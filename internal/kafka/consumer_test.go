package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConsumer() *Consumer {
	return &Consumer{log: logger.NewNop(), retryFirst: time.Millisecond, retryMax: 5 * time.Millisecond}
}

func TestConsumer_handleRetriesSameMessage(t *testing.T) {
	msg := kafka.Message{Partition: 2, Offset: 41, Value: []byte(`{}`)}
	var seen []int64

	err := testConsumer().handle(context.Background(), msg, func(ctx context.Context, m kafka.Message) error {
		seen = append(seen, m.Offset)
		if len(seen) < 3 {
			return errors.New("conn closed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{41, 41, 41}, seen)
}

func TestConsumer_handleSkipIsFinal(t *testing.T) {
	calls := 0

	err := testConsumer().handle(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		calls++
		return fmt.Errorf("%w: decode: unexpected end of JSON input", ErrSkip)
	})

	assert.ErrorIs(t, err, ErrSkip)
	assert.Equal(t, 1, calls)
}

func TestConsumer_handleStopsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- testConsumer().handle(ctx, kafka.Message{}, func(context.Context, kafka.Message) error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errors.New("database unavailable")
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("handler retry did not stop")
	}
}
