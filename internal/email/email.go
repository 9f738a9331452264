package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/pkg/logger"
)

// Sender is the notification sink. Delivery itself belongs to an external mail service; the
// sender renders the message and logs it.
type Sender struct {
	log logger.Logger
}

func NewSender(log logger.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return fmt.Errorf("%w: event %s has no recipient", kafka.ErrSkip, event.ID)
	}
	s.log.Info("send email", "to", event.Email, "subject", Subject(event), "reference", event.Reference)
	return nil
}

func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %s reserved, complete your payment", event.Reference)
	case kafka.EventBookingConfirmed:
		return fmt.Sprintf("Booking %s confirmed", event.Reference)
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Booking %s cancelled", event.Reference)
	case kafka.EventBookingExpired:
		return fmt.Sprintf("Booking %s expired before payment", event.Reference)
	}
	return fmt.Sprintf("Update on booking %s", event.Reference)
}
