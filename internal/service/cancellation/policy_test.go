package cancellation

import (
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTieredPolicy_Assess(t *testing.T) {
	policy := NewTieredPolicy([]config.FeeTier{
		{HoursBefore: 168, FeePercent: 0},
		{HoursBefore: 24, FeePercent: 25},
		{HoursBefore: 0, FeePercent: 50},
	})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	paid := &domain.Booking{TotalAmountCents: 10000, PaymentStatus: domain.PaymentStatusPaid}

	testCases := []struct {
		name      string
		departure time.Time
		want      Assessment
	}{
		{"two weeks out", now.Add(14 * 24 * time.Hour), Assessment{FeeCents: 0, RefundCents: 10000}},
		{"three days out", now.Add(72 * time.Hour), Assessment{FeeCents: 2500, RefundCents: 7500}},
		{"exactly one day out", now.Add(24 * time.Hour), Assessment{FeeCents: 2500, RefundCents: 7500}},
		{"two hours out", now.Add(2 * time.Hour), Assessment{FeeCents: 5000, RefundCents: 5000}},
		{"departed", now.Add(-time.Hour), Assessment{FeeCents: 10000, RefundCents: 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Assess(paid, tc.departure, now))
		})
	}
}

func TestPolicies_UnpaidOwesNothing(t *testing.T) {
	unpaid := &domain.Booking{TotalAmountCents: 10000, PaymentStatus: domain.PaymentStatusPending}
	now := time.Now()

	assert.Equal(t, Assessment{}, NewTieredPolicy(nil).Assess(unpaid, now, now))
	assert.Equal(t, Assessment{}, NoFeePolicy{}.Assess(unpaid, now, now))
}

func TestNewPolicy(t *testing.T) {
	assert.IsType(t, NoFeePolicy{}, NewPolicy(config.CancellationConfig{Policy: "no_fee"}))
	assert.IsType(t, &TieredPolicy{}, NewPolicy(config.CancellationConfig{Policy: "tiered"}))

	paid := &domain.Booking{TotalAmountCents: 900, PaymentStatus: domain.PaymentStatusPaid}
	assert.Equal(t, Assessment{RefundCents: 900}, NoFeePolicy{}.Assess(paid, time.Now(), time.Now()))
}
