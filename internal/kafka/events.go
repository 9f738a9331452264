package kafka

import (
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/google/uuid"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingExpired   = "booking_expired"
	EventBookingCompleted = "booking_completed"
	EventSeatChanged      = "seat_changed"
	EventPaymentFailed    = "payment_failed"
)

// Notifiable lists the events the customer hears about.
var Notifiable = map[string]bool{
	EventBookingCreated:   true,
	EventBookingConfirmed: true,
	EventBookingCancelled: true,
	EventBookingExpired:   true,
}

type BookingEvent struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Reference        string    `json:"reference"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	Email            string    `json:"email"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:               uuid.NewString(),
		Type:             eventType,
		Reference:        b.Reference,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		Email:            b.ContactEmail,
		TotalAmountCents: b.TotalAmountCents,
		OccurredAt:       at,
	}
}
