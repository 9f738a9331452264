package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
)

// Request asks the payment provider to charge a booking.
type Request struct {
	TransactionID string    `json:"transaction_id"`
	Reference     string    `json:"reference"`
	AmountCents   int64     `json:"amount_cents"`
	Email         string    `json:"email"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Result is the provider's asynchronous answer to a Request.
type Result struct {
	TransactionID string               `json:"transaction_id" binding:"required" validate:"required"`
	Reference     string               `json:"reference" binding:"required" validate:"required"`
	Status        domain.PaymentStatus `json:"status" binding:"required" validate:"required,oneof=PAID FAILED"`
	ProcessedAt   time.Time            `json:"processed_at"`
}

type Gateway interface {
	InitiatePayment(ctx context.Context, req Request) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaGateway hands payment requests to the provider through a topic.
type KafkaGateway struct {
	producer Publisher
	topic    string
}

func NewKafkaGateway(producer Publisher, topic string) *KafkaGateway {
	return &KafkaGateway{producer: producer, topic: topic}
}

func (g *KafkaGateway) InitiatePayment(ctx context.Context, req Request) error {
	return g.producer.Publish(ctx, g.topic, req.Reference, req)
}

// DecodeResult parses a provider message. Only PAID and FAILED are final answers.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("%w: payment result: %w", domain.ErrInvariantViolation, err)
	}
	if r.TransactionID == "" || r.Reference == "" {
		return Result{}, fmt.Errorf("%w: payment result without transaction id or reference", domain.ErrInvariantViolation)
	}
	if r.Status != domain.PaymentStatusPaid && r.Status != domain.PaymentStatusFailed {
		return Result{}, fmt.Errorf("%w: payment result status %q", domain.ErrInvariantViolation, r.Status)
	}
	return r, nil
}
