package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/internal/payment"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/service/booking"
	"github.com/Domenick1991/seatledger/internal/service/inventory"
	"github.com/Domenick1991/seatledger/pkg/logger"
	kafkago "github.com/segmentio/kafka-go"
)

type Notifier interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// PaymentResults applies provider answers to bookings. Answers that can never apply are
// skipped; anything else is retried by the consumer.
func PaymentResults(bookings booking.BookingUseCase, log logger.Logger) func(context.Context, kafkago.Message) error {
	return func(ctx context.Context, msg kafkago.Message) error {
		result, err := payment.DecodeResult(msg.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", kafka.ErrSkip, err)
		}

		b, err := bookings.HandlePaymentResult(ctx, result)
		if err != nil {
			switch domain.KindOf(err) {
			case domain.KindInvariantViolation, domain.KindNotFound:
				return fmt.Errorf("%w: %w", kafka.ErrSkip, err)
			}
			return err
		}
		log.Info("payment result applied", "reference", b.Reference, "status", result.Status, "booking_status", b.Status)
		return nil
	}
}

func Notifications(sender Notifier) func(context.Context, kafkago.Message) error {
	return func(ctx context.Context, msg kafkago.Message) error {
		var event kafka.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: decode event: %w", kafka.ErrSkip, err)
		}
		return sender.Send(ctx, event)
	}
}

// AuditInventory compares every flight's class counters with its free seat-slots and returns
// the number of flights that disagree.
func AuditInventory(ctx context.Context, store repository.Store, ledger *inventory.Ledger, m *metrics.Metrics, log logger.Logger) (int, error) {
	drifting := 0
	err := store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		drifting = 0
		list, err := tx.List(ctx)
		if err != nil {
			return err
		}
		for _, f := range list {
			drifts, err := ledger.Audit(ctx, tx, f.ID)
			if err != nil {
				return fmt.Errorf("audit flight %s: %w", f.FlightNumber, err)
			}
			for _, d := range drifts {
				log.Error("inventory drift", "flight", f.FlightNumber, "class", d.Class, "counter", d.Counter, "free_slots", d.FreeSlots)
			}
			if len(drifts) > 0 {
				drifting++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.Drift(drifting)
	return drifting, nil
}

// Every runs fn each interval until ctx is done. Errors are logged and the loop goes on.
func Every(ctx context.Context, interval time.Duration, name string, log logger.Logger, fn func(context.Context) (int, error)) error {
	if interval <= 0 {
		return fmt.Errorf("%s: interval must be positive", name)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := fn(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				log.Error("sweep failed", "sweep", name, "error", err)
				continue
			}
			if n > 0 {
				log.Info("sweep done", "sweep", name, "count", n)
			}
		}
	}
}
