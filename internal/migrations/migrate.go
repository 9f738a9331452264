package migrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Constraints are created by name: the repository maps violations of uq_seat_allocations_*
// to an allocation conflict and uq_bookings_reference to a retryable abort.
var Constraints = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_seat_allocations_leg_seat ON seat_allocations (booking_flight_id, flight_seat_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_seat_allocations_leg_passenger ON seat_allocations (booking_flight_id, passenger_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_seat_allocations_flight_seat ON seat_allocations (flight_seat_id)`,
}

func Open(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range Constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("constraint: %w", err)
		}
	}
	return nil
}

// Seed registers an aircraft with a standard cabin unless the registration already exists.
// It returns the aircraft id.
func Seed(ctx context.Context, db *gorm.DB, registration, model string, cabin map[domain.TravelClass]int) (int64, error) {
	var aircraft Aircraft
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("registration = ?", registration).First(&aircraft).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		aircraft = Aircraft{Registration: registration, Model: model}
		if err := tx.Create(&aircraft).Error; err != nil {
			return err
		}
		seats := CatalogRows(aircraft.ID, cabin)
		if len(seats) == 0 {
			return fmt.Errorf("%w: empty cabin for %s", domain.ErrInvariantViolation, registration)
		}
		return tx.CreateInBatches(seats, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", registration, err)
	}
	return aircraft.ID, nil
}

// CatalogRows turns a cabin layout into seat rows of one aircraft.
func CatalogRows(aircraftID int64, cabin map[domain.TravelClass]int) []Seat {
	layout := domain.CabinLayout(cabin)
	rows := make([]Seat, 0, len(layout))
	for _, s := range layout {
		rows = append(rows, Seat{
			AircraftID:  aircraftID,
			SeatNumber:  s.SeatNumber,
			TravelClass: string(s.TravelClass),
			Active:      s.Active,
		})
	}
	return rows
}
