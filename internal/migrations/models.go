package migrations

import "time"

// The models below describe the schema only. Runtime access goes through pgx in
// internal/repository, so these structs carry no behaviour.

type Aircraft struct {
	ID           int64  `gorm:"primaryKey"`
	Registration string `gorm:"size:16;not null;uniqueIndex:uq_aircraft_registration"`
	Model        string `gorm:"size:64;not null"`
}

func (Aircraft) TableName() string { return "aircraft" }

type Seat struct {
	ID          int64  `gorm:"primaryKey"`
	AircraftID  int64  `gorm:"not null;uniqueIndex:uq_seats_aircraft_number,priority:1"`
	SeatNumber  string `gorm:"size:4;not null;uniqueIndex:uq_seats_aircraft_number,priority:2"`
	TravelClass string `gorm:"size:16;not null;check:chk_seats_travel_class,travel_class IN ('ECONOMY','BUSINESS','FIRST')"`
	Active      bool   `gorm:"not null;default:true"`

	Aircraft *Aircraft `gorm:"foreignKey:AircraftID;constraint:OnDelete:CASCADE"`
}

func (Seat) TableName() string { return "seats" }

type Flight struct {
	ID                 int64     `gorm:"primaryKey"`
	FlightNumber       string    `gorm:"size:8;not null;index"`
	AircraftID         int64     `gorm:"not null;index"`
	FromAirport        string    `gorm:"size:3;not null"`
	ToAirport          string    `gorm:"size:3;not null"`
	DepartureTime      time.Time `gorm:"not null;index"`
	ArrivalTime        time.Time `gorm:"not null"`
	DurationMinutes    int       `gorm:"not null;default:0"`
	Status             string    `gorm:"size:16;not null;default:SCHEDULED"`
	EconomyPriceCents  int64     `gorm:"not null;default:0"`
	BusinessPriceCents int64     `gorm:"not null;default:0"`
	FirstPriceCents    int64     `gorm:"not null;default:0"`
	EconomyAvailable   int       `gorm:"not null;default:0;check:chk_flights_economy_available,economy_available >= 0"`
	BusinessAvailable  int       `gorm:"not null;default:0;check:chk_flights_business_available,business_available >= 0"`
	FirstAvailable     int       `gorm:"not null;default:0;check:chk_flights_first_available,first_available >= 0"`
	CreatedAt          time.Time `gorm:"not null;default:now()"`
	UpdatedAt          time.Time `gorm:"not null;default:now()"`

	Aircraft *Aircraft `gorm:"foreignKey:AircraftID;constraint:OnDelete:RESTRICT"`
}

func (Flight) TableName() string { return "flights" }

type FlightSeat struct {
	ID          int64  `gorm:"primaryKey"`
	FlightID    int64  `gorm:"not null;uniqueIndex:uq_flight_seats_flight_seat,priority:1;uniqueIndex:uq_flight_seats_flight_number,priority:1;index:idx_flight_seats_free,priority:1"`
	SeatID      int64  `gorm:"not null;uniqueIndex:uq_flight_seats_flight_seat,priority:2"`
	SeatNumber  string `gorm:"size:4;not null;uniqueIndex:uq_flight_seats_flight_number,priority:2"`
	TravelClass string `gorm:"size:16;not null;index:idx_flight_seats_free,priority:2"`
	IsAvailable bool   `gorm:"not null;default:true;index:idx_flight_seats_free,priority:3"`

	Flight *Flight `gorm:"foreignKey:FlightID;constraint:OnDelete:CASCADE"`
	Seat   *Seat   `gorm:"foreignKey:SeatID;constraint:OnDelete:RESTRICT"`
}

func (FlightSeat) TableName() string { return "flight_seats" }

type Booking struct {
	ID               int64      `gorm:"primaryKey"`
	Reference        string     `gorm:"size:6;not null;uniqueIndex:uq_bookings_reference"`
	UserID           int64      `gorm:"not null;default:0;index"`
	ContactName      string     `gorm:"size:128;not null"`
	ContactEmail     string     `gorm:"size:255;not null"`
	ContactPhone     string     `gorm:"size:32;not null"`
	TotalAmountCents int64      `gorm:"not null;default:0"`
	PaymentStatus    string     `gorm:"size:16;not null;default:PENDING"`
	Status           string     `gorm:"size:16;not null;default:RESERVED;index:idx_bookings_status_expiry,priority:1"`
	ExpiresAt        time.Time  `gorm:"not null;index:idx_bookings_status_expiry,priority:2"`
	CancelledAt      *time.Time
	CreatedAt        time.Time  `gorm:"not null;default:now()"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()"`
}

func (Booking) TableName() string { return "bookings" }

type BookingFlight struct {
	ID          int64  `gorm:"primaryKey"`
	BookingID   int64  `gorm:"not null;index"`
	FlightID    int64  `gorm:"not null;index"`
	TravelClass string `gorm:"size:16;not null"`
	FareCents   int64  `gorm:"not null;default:0"`
	BaggageKg   int    `gorm:"not null;default:0"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	Flight  *Flight  `gorm:"foreignKey:FlightID;constraint:OnDelete:RESTRICT"`
}

func (BookingFlight) TableName() string { return "booking_flights" }

type Passenger struct {
	ID            int64  `gorm:"primaryKey"`
	BookingID     int64  `gorm:"not null;index"`
	FirstName     string `gorm:"size:64;not null"`
	LastName      string `gorm:"size:64;not null"`
	PassengerType string `gorm:"size:8;not null;check:chk_passengers_type,passenger_type IN ('ADULT','CHILD','INFANT')"`
	Position      int    `gorm:"not null;default:0"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

func (Passenger) TableName() string { return "passengers" }

// SeatAllocation indexes are created in constraints so their names stay stable.
type SeatAllocation struct {
	ID              int64     `gorm:"primaryKey"`
	BookingFlightID int64     `gorm:"not null"`
	FlightSeatID    int64     `gorm:"not null"`
	PassengerID     int64     `gorm:"not null"`
	SeatNumber      string    `gorm:"size:4;not null"`
	CreatedAt       time.Time `gorm:"not null;default:now()"`

	BookingFlight *BookingFlight `gorm:"foreignKey:BookingFlightID;constraint:OnDelete:CASCADE"`
	FlightSeat    *FlightSeat    `gorm:"foreignKey:FlightSeatID;constraint:OnDelete:RESTRICT"`
	Passenger     *Passenger     `gorm:"foreignKey:PassengerID;constraint:OnDelete:CASCADE"`
}

func (SeatAllocation) TableName() string { return "seat_allocations" }

type Payment struct {
	ID            int64      `gorm:"primaryKey"`
	BookingID     int64      `gorm:"not null;index"`
	AmountCents   int64      `gorm:"not null"`
	Status        string     `gorm:"size:16;not null"`
	TransactionID string     `gorm:"size:64;not null;uniqueIndex:uq_payments_transaction_id"`
	CreatedAt     time.Time  `gorm:"not null;default:now()"`
	ProcessedAt   *time.Time

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

func (Payment) TableName() string { return "payments" }

type CancelHistory struct {
	ID            int64     `gorm:"primaryKey"`
	BookingID     int64     `gorm:"not null;uniqueIndex:uq_cancel_histories_booking"`
	Actor         string    `gorm:"size:64;not null"`
	Reason        string    `gorm:"size:255;not null"`
	FeeCents      int64     `gorm:"not null;default:0"`
	RefundCents   int64     `gorm:"not null;default:0"`
	SeatsReleased int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"not null;default:now()"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

func (CancelHistory) TableName() string { return "cancel_histories" }

type RefundHistory struct {
	ID              int64     `gorm:"primaryKey"`
	BookingID       int64     `gorm:"not null;index"`
	CancelHistoryID int64     `gorm:"not null;index"`
	AmountCents     int64     `gorm:"not null"`
	Status          string    `gorm:"size:16;not null;default:PENDING"`
	CreatedAt       time.Time `gorm:"not null;default:now()"`

	Booking       *Booking       `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CancelHistory *CancelHistory `gorm:"foreignKey:CancelHistoryID;constraint:OnDelete:CASCADE"`
}

func (RefundHistory) TableName() string { return "refund_histories" }

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&Aircraft{},
		&Seat{},
		&Flight{},
		&FlightSeat{},
		&Booking{},
		&BookingFlight{},
		&Passenger{},
		&SeatAllocation{},
		&Payment{},
		&CancelHistory{},
		&RefundHistory{},
	}
}
