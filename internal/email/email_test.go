package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestSender_Send(t *testing.T) {
	s := NewSender(logger.NewNop())

	assert.NoError(t, s.Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingConfirmed, Email: "ann@example.com", Reference: "ABC123"}))
	assert.ErrorIs(t, s.Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingConfirmed}), kafka.ErrSkip)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Booking ABC123 confirmed", Subject(kafka.BookingEvent{Type: kafka.EventBookingConfirmed, Reference: "ABC123"}))
	assert.Equal(t, "Update on booking ABC123", Subject(kafka.BookingEvent{Type: kafka.EventSeatChanged, Reference: "ABC123"}))
}
