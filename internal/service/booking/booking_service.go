package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/internal/payment"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/retry"
	"github.com/Domenick1991/seatledger/internal/service/allocation"
	"github.com/Domenick1991/seatledger/internal/service/inventory"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultPaymentWindow = 15 * time.Minute
	DefaultSweepBatch    = 100
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, reference string) (*domain.Booking, error)
	InitiatePayment(ctx context.Context, reference string) (*domain.Payment, error)
	HandlePaymentResult(ctx context.Context, result payment.Result) (*domain.Booking, error)
	ChangeSeat(ctx context.Context, input ChangeSeatInput) (*domain.SeatAllocation, error)
	CompleteBooking(ctx context.Context, reference string) (*domain.Booking, error)
	CompleteDeparted(ctx context.Context) (int, error)
	ExpireReserved(ctx context.Context) (int, error)
}

type Cache interface {
	LookupIdempotency(ctx context.Context, key string) (string, bool, error)
	RememberIdempotency(ctx context.Context, key, reference string) error
	InvalidateFlights(ctx context.Context) error
}

// Canceller expires reservations through the cancellation ledger.
type Canceller interface {
	Expire(ctx context.Context, reference string) (*domain.CancelHistory, error)
}

type CreateBookingInput struct {
	IdempotencyKey string           `json:"-"`
	UserID         int64            `json:"user_id"`
	Contact        ContactInput     `json:"contact" validate:"required"`
	Passengers     []PassengerInput `json:"passengers" validate:"required,min=1,max=9,dive"`
	Legs           []LegInput       `json:"legs" validate:"required,min=1,max=6,dive"`
}

type ContactInput struct {
	Name  string `json:"name" validate:"required,max=128"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type PassengerInput struct {
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name" validate:"required,max=64"`
	Type      string `json:"type" validate:"required,oneof=ADULT CHILD INFANT"`
}

// LegInput books one flight for every passenger. SeatNumbers are matched to passengers by
// position; a missing or empty entry means any free seat of the class.
type LegInput struct {
	FlightID    int64    `json:"flight_id" validate:"required,gt=0"`
	TravelClass string   `json:"travel_class" validate:"required,oneof=ECONOMY BUSINESS FIRST"`
	BaggageKg   int      `json:"baggage_kg" validate:"gte=0,lte=64"`
	SeatNumbers []string `json:"seat_numbers" validate:"omitempty,dive,max=4"`
}

type ChangeSeatInput struct {
	Reference       string `json:"-" validate:"required"`
	BookingFlightID int64  `json:"booking_flight_id" validate:"required,gt=0"`
	PassengerID     int64  `json:"passenger_id" validate:"required,gt=0"`
	SeatNumber      string `json:"seat_number" validate:"required,max=4"`
}

type BookingService struct {
	store         repository.Store
	ledger        *inventory.Ledger
	allocator     *allocation.Allocator
	canceller     Canceller
	gateway       payment.Gateway
	cache         Cache
	events        *kafka.Emitter
	validate      *validator.Validate
	retry         retry.Policy
	paymentWindow time.Duration
	batchSize     int
	log           logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
	newReference  func() string
}

type BookingServiceOption func(*BookingService)

func WithGateway(g payment.Gateway) BookingServiceOption {
	return func(s *BookingService) {
		s.gateway = g
	}
}

func WithCache(c Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = c
	}
}

func WithEmitter(e *kafka.Emitter) BookingServiceOption {
	return func(s *BookingService) {
		s.events = e
	}
}

func WithRetry(attempts int, backoff time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.retry.Attempts = attempts
		s.retry.Backoff = backoff
	}
}

func WithPaymentWindow(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d > 0 {
			s.paymentWindow = d
		}
	}
}

func WithSweepBatch(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithReferenceGenerator(gen func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newReference = gen
	}
}

func NewBookingService(
	store repository.Store,
	ledger *inventory.Ledger,
	allocator *allocation.Allocator,
	canceller Canceller,
	log logger.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:         store,
		ledger:        ledger,
		allocator:     allocator,
		canceller:     canceller,
		validate:      validator.New(),
		retry:         retry.Policy{Attempts: 3, Backoff: 50 * time.Millisecond, Retryable: retry.Aborted},
		paymentWindow: DefaultPaymentWindow,
		batchSize:     DefaultSweepBatch,
		log:           log,
		now:           time.Now,
		newReference:  NewReference,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReference returns a six character booking reference without look-alike characters.
func NewReference() string {
	id := uuid.New()
	ref := make([]byte, 6)
	for i := range ref {
		ref[i] = referenceAlphabet[int(id[i])%len(referenceAlphabet)]
	}
	return string(ref)
}

// CreateBooking reserves seats for every passenger on every leg and records the booking as
// RESERVED. Either all of it is written or none of it is.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	started := s.now()
	if err := s.checkInput(input); err != nil {
		s.metrics.BookingFailed(err)
		return nil, err
	}

	if input.IdempotencyKey != "" && s.cache != nil {
		reference, ok, err := s.cache.LookupIdempotency(ctx, input.IdempotencyKey)
		if err != nil {
			s.log.Warn("idempotency lookup failed", "key", input.IdempotencyKey, "error", err)
		}
		if ok {
			s.log.Debug("idempotent booking replay", "key", input.IdempotencyKey, "reference", reference)
			return s.GetBooking(ctx, reference)
		}
	}

	var booking *domain.Booking
	err := retry.Do(ctx, s.retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.metrics.Retried("create_booking")
			s.log.Debug("retrying booking transaction", "attempt", attempt)
		}
		b, err := s.createOnce(ctx, input)
		booking = b
		return err
	})
	if err != nil {
		s.metrics.BookingFailed(err)
		s.log.Warn("booking failed", "kind", domain.KindOf(err), "error", err)
		return nil, err
	}
	s.metrics.BookingCreated(started)
	s.log.Info("booking reserved", "reference", booking.Reference, "legs", len(booking.Flights),
		"passengers", len(booking.Passengers), "total_cents", booking.TotalAmountCents)

	if p, err := s.InitiatePayment(ctx, booking.Reference); err != nil {
		s.log.Warn("payment request failed, booking stays reserved", "reference", booking.Reference, "error", err)
	} else {
		booking.Payments = append(booking.Payments, *p)
	}

	s.events.Emit(ctx, kafka.EventBookingCreated, booking)
	if s.cache != nil {
		if input.IdempotencyKey != "" {
			if err := s.cache.RememberIdempotency(ctx, input.IdempotencyKey, booking.Reference); err != nil {
				s.log.Warn("idempotency record not stored", "key", input.IdempotencyKey, "error", err)
			}
		}
		s.invalidateFlights(ctx)
	}
	return booking, nil
}

func (s *BookingService) checkInput(input CreateBookingInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
	}

	flights := make(map[int64]bool, len(input.Legs))
	for _, leg := range input.Legs {
		if flights[leg.FlightID] {
			return fmt.Errorf("%w: flight %d appears twice", domain.ErrInvariantViolation, leg.FlightID)
		}
		flights[leg.FlightID] = true

		if len(leg.SeatNumbers) > len(input.Passengers) {
			return fmt.Errorf("%w: %d seat numbers for %d passengers on flight %d",
				domain.ErrInvariantViolation, len(leg.SeatNumbers), len(input.Passengers), leg.FlightID)
		}
		requested := make(map[string]bool, len(leg.SeatNumbers))
		for _, seat := range leg.SeatNumbers {
			if seat == "" {
				continue
			}
			if requested[seat] {
				return fmt.Errorf("%w: seat %s requested twice on flight %d", domain.ErrInvariantViolation, seat, leg.FlightID)
			}
			requested[seat] = true
		}
	}
	return nil
}

func (s *BookingService) createOnce(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		demand := inventory.Demand{}
		for _, leg := range input.Legs {
			demand.Add(leg.FlightID, domain.TravelClass(leg.TravelClass), len(input.Passengers))
		}
		flights, err := s.ledger.EnsureCapacity(ctx, tx, demand)
		if err != nil {
			return err
		}

		now := s.now()
		for _, leg := range input.Legs {
			f := flights[leg.FlightID]
			if !f.Status.Bookable() {
				return fmt.Errorf("%w: flight %s is %s", domain.ErrInvariantViolation, f.FlightNumber, f.Status)
			}
			if !f.DepartureTime.After(now) {
				return fmt.Errorf("%w: flight %s has already departed", domain.ErrInvariantViolation, f.FlightNumber)
			}
		}

		b := &domain.Booking{
			Reference:     s.newReference(),
			UserID:        input.UserID,
			ContactName:   input.Contact.Name,
			ContactEmail:  input.Contact.Email,
			ContactPhone:  input.Contact.Phone,
			PaymentStatus: domain.PaymentStatusPending,
			Status:        domain.BookingStatusReserved,
			ExpiresAt:     now.Add(s.paymentWindow),
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}

		for i, p := range input.Passengers {
			passenger := &domain.Passenger{
				BookingID: b.ID,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Type:      domain.PassengerType(p.Type),
				Position:  i,
			}
			if err := tx.CreatePassenger(ctx, passenger); err != nil {
				return err
			}
			b.Passengers = append(b.Passengers, *passenger)
		}

		var total int64
		for _, in := range input.Legs {
			f := flights[in.FlightID]
			class := domain.TravelClass(in.TravelClass)

			leg := &domain.BookingFlight{
				BookingID:   b.ID,
				FlightID:    in.FlightID,
				TravelClass: class,
				FareCents:   legFare(f.PriceFor(class), b.Passengers),
				BaggageKg:   in.BaggageKg,
			}
			if err := tx.CreateBookingFlight(ctx, leg); err != nil {
				return err
			}

			for i, p := range b.Passengers {
				var (
					a   *domain.SeatAllocation
					err error
				)
				if i < len(in.SeatNumbers) && in.SeatNumbers[i] != "" {
					a, err = s.allocator.AllocateByNumber(ctx, tx, leg.ID, in.SeatNumbers[i], p.ID)
				} else {
					a, err = s.allocator.AllocateAny(ctx, tx, leg.ID, p.ID)
				}
				if err != nil {
					return fmt.Errorf("seat for %s %s on %s: %w", p.FirstName, p.LastName, f.FlightNumber, err)
				}
				b.Allocations = append(b.Allocations, *a)
			}

			total += leg.FareCents
			b.Flights = append(b.Flights, *leg)
		}

		if err := tx.UpdateBookingTotal(ctx, b.ID, total); err != nil {
			return err
		}
		b.TotalAmountCents = total
		booking = b
		return nil
	})
	return booking, err
}

// legFare is what all passengers together pay for one leg.
func legFare(price int64, passengers []domain.Passenger) int64 {
	var fare int64
	for _, p := range passengers {
		fare += price * p.Type.FarePercent() / 100
	}
	return fare
}

func (s *BookingService) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		booking, err = tx.GetBooking(ctx, reference)
		return err
	})
	return booking, err
}

// InitiatePayment records a fresh payment attempt for a reservation and sends it to the
// payment provider. The answer arrives later through HandlePaymentResult.
func (s *BookingService) InitiatePayment(ctx context.Context, reference string) (*domain.Payment, error) {
	var (
		p       *domain.Payment
		booking *domain.Booking
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusReserved {
			return fmt.Errorf("%w: booking %s is %s", domain.ErrInvariantViolation, reference, b.Status)
		}
		if b.PaymentStatus != domain.PaymentStatusPending && b.PaymentStatus != domain.PaymentStatusFailed {
			return fmt.Errorf("%w: booking %s payment is %s", domain.ErrInvariantViolation, reference, b.PaymentStatus)
		}
		if !b.ExpiresAt.After(s.now()) {
			return fmt.Errorf("%w: payment window of booking %s has elapsed", domain.ErrInvariantViolation, reference)
		}

		p = &domain.Payment{
			BookingID:     b.ID,
			AmountCents:   b.TotalAmountCents,
			Status:        domain.PaymentStatusPending,
			TransactionID: uuid.NewString(),
		}
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		if b.PaymentStatus == domain.PaymentStatusFailed {
			if err := tx.UpdateBookingStatus(ctx, b.ID, b.Status, domain.PaymentStatusPending); err != nil {
				return err
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.gateway == nil {
		return p, nil
	}
	req := payment.Request{
		TransactionID: p.TransactionID,
		Reference:     booking.Reference,
		AmountCents:   p.AmountCents,
		Email:         booking.ContactEmail,
		RequestedAt:   s.now(),
	}
	if err := s.gateway.InitiatePayment(ctx, req); err != nil {
		return nil, fmt.Errorf("send payment request %s: %w", p.TransactionID, err)
	}
	return p, nil
}

// HandlePaymentResult applies the provider's answer for one payment attempt. Answers for an
// attempt that is no longer pending are ignored.
func (s *BookingService) HandlePaymentResult(ctx context.Context, result payment.Result) (*domain.Booking, error) {
	if err := s.validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
	}

	var (
		booking   *domain.Booking
		eventType string
	)
	err := retry.Do(ctx, s.retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.metrics.Retried("payment_result")
		}
		eventType = ""
		return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			b, err := tx.GetBookingForUpdate(ctx, result.Reference)
			if err != nil {
				return err
			}
			booking = b

			var p *domain.Payment
			for i := range b.Payments {
				if b.Payments[i].TransactionID == result.TransactionID {
					p = &b.Payments[i]
				}
			}
			if p == nil {
				return fmt.Errorf("%w: payment %s of booking %s", domain.ErrNotFound, result.TransactionID, result.Reference)
			}
			if p.Status != domain.PaymentStatusPending {
				s.log.Debug("duplicate payment result ignored", "transaction_id", p.TransactionID, "status", p.Status)
				return nil
			}

			processed := result.ProcessedAt
			if processed.IsZero() {
				processed = s.now()
			}
			p.Status = result.Status
			p.ProcessedAt = &processed

			if result.Status == domain.PaymentStatusFailed {
				if err := tx.UpdatePayment(ctx, p); err != nil {
					return err
				}
				if b.Status == domain.BookingStatusReserved && b.PaymentStatus != domain.PaymentStatusPaid {
					b.PaymentStatus = domain.PaymentStatusFailed
					eventType = kafka.EventPaymentFailed
					return tx.UpdateBookingStatus(ctx, b.ID, b.Status, b.PaymentStatus)
				}
				return nil
			}

			switch b.Status {
			case domain.BookingStatusReserved:
				b.Status, b.PaymentStatus = domain.BookingStatusConfirmed, domain.PaymentStatusPaid
				eventType = kafka.EventBookingConfirmed
			case domain.BookingStatusCancelled:
				history, err := tx.GetCancelHistory(ctx, b.ID)
				if err != nil {
					return err
				}
				if err := tx.CreateRefundHistory(ctx, &domain.RefundHistory{
					BookingID:       b.ID,
					CancelHistoryID: history.ID,
					AmountCents:     p.AmountCents,
					Status:          domain.RefundStatusPending,
				}); err != nil {
					return err
				}
				p.Status = domain.PaymentStatusRefunded
				b.PaymentStatus = domain.PaymentStatusRefunded
			default:
				s.log.Warn("payment captured for a settled booking", "reference", b.Reference,
					"status", b.Status, "transaction_id", p.TransactionID)
			}

			if err := tx.UpdatePayment(ctx, p); err != nil {
				return err
			}
			return tx.UpdateBookingStatus(ctx, b.ID, b.Status, b.PaymentStatus)
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentCallback(result.Status)
	if eventType != "" {
		s.log.Info("payment result applied", "reference", booking.Reference, "status", result.Status)
		s.events.Emit(ctx, eventType, booking)
	}
	return booking, nil
}

// ChangeSeat moves a passenger to another seat on the same leg. The old seat is kept if the
// new one cannot be had.
func (s *BookingService) ChangeSeat(ctx context.Context, input ChangeSeatInput) (*domain.SeatAllocation, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
	}

	var (
		allocation *domain.SeatAllocation
		booking    *domain.Booking
		changed    bool
	)
	err := retry.Do(ctx, s.retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.metrics.Retried("change_seat")
		}
		changed = false
		return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			b, err := tx.GetBookingForUpdate(ctx, input.Reference)
			if err != nil {
				return err
			}
			if !b.Status.IsActive() {
				return fmt.Errorf("%w: booking %s is %s", domain.ErrInvariantViolation, b.Reference, b.Status)
			}
			leg := b.Leg(input.BookingFlightID)
			if leg == nil {
				return fmt.Errorf("%w: leg %d of booking %s", domain.ErrNotFound, input.BookingFlightID, b.Reference)
			}
			f, err := tx.GetByID(ctx, leg.FlightID)
			if err != nil {
				return err
			}
			if !f.Status.Bookable() {
				return fmt.Errorf("%w: flight %s is %s", domain.ErrInvariantViolation, f.FlightNumber, f.Status)
			}

			current, err := tx.FindAllocation(ctx, leg.ID, input.PassengerID)
			switch {
			case err == nil:
				if current.SeatNumber == input.SeatNumber {
					allocation = current
					return nil
				}
				if _, err := s.allocator.Release(ctx, tx, current.ID); err != nil {
					return err
				}
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}

			allocation, err = s.allocator.AllocateByNumber(ctx, tx, leg.ID, input.SeatNumber, input.PassengerID)
			if err != nil {
				return err
			}
			b.Allocations, err = tx.ListAllocationsByBooking(ctx, b.ID)
			booking, changed = b, true
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("seat changed", "reference", input.Reference, "passenger_id", input.PassengerID, "seat", allocation.SeatNumber)
		s.events.Emit(ctx, kafka.EventSeatChanged, booking)
	}
	return allocation, nil
}

// CompleteBooking closes a confirmed booking once every leg has landed.
func (s *BookingService) CompleteBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(domain.BookingStatusCompleted) {
			return fmt.Errorf("%w: booking %s is %s", domain.ErrInvariantViolation, reference, b.Status)
		}

		now := s.now()
		for _, leg := range b.Flights {
			f, err := tx.GetByID(ctx, leg.FlightID)
			if err != nil {
				return err
			}
			if f.ArrivalTime.After(now) {
				return fmt.Errorf("%w: flight %s has not landed yet", domain.ErrInvariantViolation, f.FlightNumber)
			}
		}

		b.Status = domain.BookingStatusCompleted
		booking = b
		return tx.UpdateBookingStatus(ctx, b.ID, b.Status, b.PaymentStatus)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, kafka.EventBookingCompleted, booking)
	return booking, nil
}

// CompleteDeparted completes one batch of confirmed bookings whose legs have all landed.
func (s *BookingService) CompleteDeparted(ctx context.Context) (int, error) {
	references, err := s.sweep(ctx, func(ctx context.Context, tx repository.Tx, now time.Time) ([]string, error) {
		return tx.ListCompletable(ctx, now, s.batchSize)
	})
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, reference := range references {
		if _, err := s.CompleteBooking(ctx, reference); err != nil {
			s.log.Warn("booking not completed", "reference", reference, "error", err)
			continue
		}
		completed++
	}
	if completed > 0 {
		s.log.Info("bookings completed", "count", completed)
	}
	return completed, nil
}

// ExpireReserved cancels one batch of reservations whose payment window has passed.
func (s *BookingService) ExpireReserved(ctx context.Context) (int, error) {
	references, err := s.sweep(ctx, func(ctx context.Context, tx repository.Tx, now time.Time) ([]string, error) {
		return tx.ListExpiredReserved(ctx, now, s.batchSize)
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, reference := range references {
		if _, err := s.canceller.Expire(ctx, reference); err != nil {
			if errors.Is(err, domain.ErrInvariantViolation) {
				s.log.Debug("reservation settled before expiry", "reference", reference, "error", err)
			} else {
				s.log.Warn("reservation not expired", "reference", reference, "error", err)
			}
			continue
		}
		expired++
	}
	if expired > 0 {
		s.log.Info("reservations expired", "count", expired)
		if s.cache != nil {
			s.invalidateFlights(ctx)
		}
	}
	return expired, nil
}

func (s *BookingService) sweep(ctx context.Context, list func(context.Context, repository.Tx, time.Time) ([]string, error)) ([]string, error) {
	var references []string
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		references, err = list(ctx, tx, s.now())
		return err
	})
	return references, err
}

func (s *BookingService) invalidateFlights(ctx context.Context) {
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.Warn("flight cache not invalidated", "error", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
