package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/retry"
	"github.com/Domenick1991/seatledger/internal/service/allocation"
	"github.com/Domenick1991/seatledger/pkg/logger"
)

const (
	ActorSystem   = "system"
	ReasonExpired = "payment window elapsed"
)

type CancellationUseCase interface {
	Cancel(ctx context.Context, reference, actor, reason string) (*domain.CancelHistory, error)
	Expire(ctx context.Context, reference string) (*domain.CancelHistory, error)
	GetCancellation(ctx context.Context, reference string) (*Cancellation, error)
}

// Cancellation is the audit trail of one cancelled booking.
type Cancellation struct {
	History domain.CancelHistory
	Refunds []domain.RefundHistory
}

type CancellationService struct {
	store     repository.Store
	allocator *allocation.Allocator
	policy    Policy
	events    *kafka.Emitter
	retry     retry.Policy
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*CancellationService)

func WithEmitter(e *kafka.Emitter) Option {
	return func(s *CancellationService) {
		s.events = e
	}
}

func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *CancellationService) {
		s.retry.Attempts = attempts
		s.retry.Backoff = backoff
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *CancellationService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CancellationService) {
		s.now = now
	}
}

func NewCancellationService(store repository.Store, allocator *allocation.Allocator, policy Policy, log logger.Logger, opts ...Option) *CancellationService {
	s := &CancellationService{
		store:     store,
		allocator: allocator,
		policy:    policy,
		retry:     retry.Policy{Attempts: 3, Backoff: 50 * time.Millisecond, Retryable: retry.Aborted},
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cancel releases every seat of the booking, records the fee and refund, and moves the booking
// to CANCELLED. Cancelling a cancelled booking returns its existing history.
func (s *CancellationService) Cancel(ctx context.Context, reference, actor, reason string) (*domain.CancelHistory, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor is required", domain.ErrInvariantViolation)
	}
	return s.cancel(ctx, reference, actor, reason, kafka.EventBookingCancelled, nil)
}

// Expire cancels a reservation whose payment window has passed. A booking that got paid or
// cancelled in the meantime is left alone.
func (s *CancellationService) Expire(ctx context.Context, reference string) (*domain.CancelHistory, error) {
	return s.cancel(ctx, reference, ActorSystem, ReasonExpired, kafka.EventBookingExpired, func(b *domain.Booking, now time.Time) error {
		if b.Status != domain.BookingStatusReserved || b.PaymentStatus == domain.PaymentStatusPaid || !b.ExpiresAt.Before(now) {
			return fmt.Errorf("%w: booking %s is not an expired reservation", domain.ErrInvariantViolation, b.Reference)
		}
		return nil
	})
}

func (s *CancellationService) cancel(ctx context.Context, reference, actor, reason, eventType string, guard func(*domain.Booking, time.Time) error) (*domain.CancelHistory, error) {
	var (
		history   *domain.CancelHistory
		cancelled *domain.Booking
		replayed  bool
	)

	err := retry.Do(ctx, s.retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.metrics.Retried("cancel")
		}
		replayed = false
		return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			b, err := tx.GetBookingForUpdate(ctx, reference)
			if err != nil {
				return err
			}

			if b.Status == domain.BookingStatusCancelled {
				history, err = tx.GetCancelHistory(ctx, b.ID)
				replayed = true
				return err
			}
			if !b.Status.CanTransitionTo(domain.BookingStatusCancelled) {
				return fmt.Errorf("%w: booking %s is %s and cannot be cancelled", domain.ErrInvariantViolation, reference, b.Status)
			}

			now := s.now()
			if guard != nil {
				if err := guard(b, now); err != nil {
					return err
				}
			}

			firstDeparture, err := s.firstDeparture(ctx, tx, b)
			if err != nil {
				return err
			}
			assessment := s.policy.Assess(b, firstDeparture, now)

			for _, a := range b.Allocations {
				if _, err := s.allocator.Release(ctx, tx, a.ID); err != nil {
					return fmt.Errorf("release seat %s: %w", a.SeatNumber, err)
				}
			}

			paymentStatus := b.PaymentStatus
			refunding := b.PaymentStatus == domain.PaymentStatusPaid && assessment.RefundCents > 0
			if refunding {
				paymentStatus = domain.PaymentStatusRefunded
			}
			if err := tx.UpdateBookingStatus(ctx, b.ID, domain.BookingStatusCancelled, paymentStatus); err != nil {
				return err
			}

			h := &domain.CancelHistory{
				BookingID:     b.ID,
				Actor:         actor,
				Reason:        reason,
				FeeCents:      assessment.FeeCents,
				RefundCents:   assessment.RefundCents,
				SeatsReleased: len(b.Allocations),
			}
			if err := tx.CreateCancelHistory(ctx, h); err != nil {
				return err
			}

			if refunding {
				if err := tx.CreateRefundHistory(ctx, &domain.RefundHistory{
					BookingID:       b.ID,
					CancelHistoryID: h.ID,
					AmountCents:     assessment.RefundCents,
					Status:          domain.RefundStatusPending,
				}); err != nil {
					return err
				}
			}

			b.Status = domain.BookingStatusCancelled
			b.PaymentStatus = paymentStatus
			b.Allocations = nil
			history, cancelled = h, b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if !replayed {
		s.metrics.Cancelled(actor)
		s.log.Info("booking cancelled", "reference", reference, "actor", actor,
			"seats_released", history.SeatsReleased, "fee_cents", history.FeeCents, "refund_cents", history.RefundCents)
		s.events.Emit(ctx, eventType, cancelled)
	}
	return history, nil
}

func (s *CancellationService) firstDeparture(ctx context.Context, tx repository.Tx, b *domain.Booking) (time.Time, error) {
	ids := make([]int64, 0, len(b.Flights))
	for _, leg := range b.Flights {
		ids = append(ids, leg.FlightID)
	}
	if len(ids) == 0 {
		return s.now(), nil
	}

	flights, err := tx.LockFlights(ctx, ids)
	if err != nil {
		return time.Time{}, err
	}
	first := flights[0].DepartureTime
	for _, f := range flights[1:] {
		if f.DepartureTime.Before(first) {
			first = f.DepartureTime
		}
	}
	return first, nil
}

func (s *CancellationService) GetCancellation(ctx context.Context, reference string) (*Cancellation, error) {
	var c Cancellation
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.GetBooking(ctx, reference)
		if err != nil {
			return err
		}
		h, err := tx.GetCancelHistory(ctx, b.ID)
		if err != nil {
			return err
		}
		c.History = *h
		c.Refunds, err = tx.ListRefundHistory(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ CancellationUseCase = (*CancellationService)(nil)
