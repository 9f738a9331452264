package flights

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	SeatMap(ctx context.Context, flightID int64) (*SeatMap, error)
	CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error)
}

// FlightCache holds the browse list only. Booking never reads seat counts from it.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type CreateFlightInput struct {
	FlightNumber       string    `json:"flight_number" validate:"required,max=8"`
	AircraftID         int64     `json:"aircraft_id" validate:"required,gt=0"`
	FromAirport        string    `json:"from_airport" validate:"required,len=3,alpha"`
	ToAirport          string    `json:"to_airport" validate:"required,len=3,alpha,nefield=FromAirport"`
	DepartureTime      time.Time `json:"departure_time" validate:"required"`
	ArrivalTime        time.Time `json:"arrival_time" validate:"required,gtfield=DepartureTime"`
	EconomyPriceCents  int64     `json:"economy_price_cents" validate:"gte=0"`
	BusinessPriceCents int64     `json:"business_price_cents" validate:"gte=0"`
	FirstPriceCents    int64     `json:"first_price_cents" validate:"gte=0"`
}

type SeatMap struct {
	Flight domain.Flight       `json:"flight"`
	Seats  []domain.FlightSeat `json:"seats"`
}

type FlightService struct {
	store    repository.Store
	cache    FlightCache
	validate *validator.Validate
	log      logger.Logger
}

func NewFlightService(store repository.Store, cache FlightCache, log logger.Logger) *FlightService {
	return &FlightService{store: store, cache: cache, validate: validator.New(), log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	var flights []domain.Flight
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		flights, err = tx.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("flight list not cached", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var flight *domain.Flight
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		flight, err = tx.GetByID(ctx, id)
		return err
	})
	return flight, err
}

func (s *FlightService) SeatMap(ctx context.Context, flightID int64) (*SeatMap, error) {
	var m SeatMap
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		f, err := tx.GetByID(ctx, flightID)
		if err != nil {
			return err
		}
		m.Flight = *f
		m.Seats, err = tx.ListFlightSeats(ctx, flightID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateFlight schedules a flight and gives it one seat-slot per active seat of its aircraft.
func (s *FlightService) CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
	}

	flight := &domain.Flight{
		FlightNumber:       input.FlightNumber,
		AircraftID:         input.AircraftID,
		FromAirport:        input.FromAirport,
		ToAirport:          input.ToAirport,
		DepartureTime:      input.DepartureTime,
		ArrivalTime:        input.ArrivalTime,
		DurationMinutes:    int(input.ArrivalTime.Sub(input.DepartureTime).Minutes()),
		Status:             domain.FlightStatusScheduled,
		EconomyPriceCents:  input.EconomyPriceCents,
		BusinessPriceCents: input.BusinessPriceCents,
		FirstPriceCents:    input.FirstPriceCents,
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateFlight(ctx, flight)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("flight created", "flight_id", flight.ID, "flight_number", flight.FlightNumber,
		"economy", flight.EconomyAvailable, "business", flight.BusinessAvailable, "first", flight.FirstAvailable)
	s.invalidate(ctx)
	return flight, nil
}

// UpdateStatus moves a flight to status. Arrived and cancelled flights stay as they are.
func (s *FlightService) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown flight status %q", domain.ErrInvariantViolation, status)
	}

	var flight *domain.Flight
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LockFlights(ctx, []int64{id}); err != nil {
			return err
		}
		current, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == domain.FlightStatusArrived || current.Status == domain.FlightStatusCancelled {
			return fmt.Errorf("%w: flight %s is already %s", domain.ErrInvariantViolation, current.FlightNumber, current.Status)
		}
		flight, err = tx.UpdateFlightStatus(ctx, id, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return flight, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.Warn("flight cache not invalidated", "error", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
