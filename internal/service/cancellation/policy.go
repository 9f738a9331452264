package cancellation

import (
	"time"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/domain"
)

type Assessment struct {
	FeeCents    int64
	RefundCents int64
}

// Policy decides what a cancellation costs. Only money actually paid can be refunded.
type Policy interface {
	Assess(booking *domain.Booking, firstDeparture, now time.Time) Assessment
}

// TieredPolicy charges a share of the total that grows as departure gets closer.
// Tiers are ordered by HoursBefore, largest first; after departure the whole total is kept.
type TieredPolicy struct {
	tiers []config.FeeTier
}

func NewTieredPolicy(tiers []config.FeeTier) *TieredPolicy {
	return &TieredPolicy{tiers: tiers}
}

func (p *TieredPolicy) Assess(b *domain.Booking, firstDeparture, now time.Time) Assessment {
	if b.PaymentStatus != domain.PaymentStatusPaid {
		return Assessment{}
	}

	hoursLeft := firstDeparture.Sub(now).Hours()
	percent := int64(100)
	for _, tier := range p.tiers {
		if hoursLeft >= float64(tier.HoursBefore) {
			percent = int64(tier.FeePercent)
			break
		}
	}

	fee := b.TotalAmountCents * percent / 100
	return Assessment{FeeCents: fee, RefundCents: b.TotalAmountCents - fee}
}

type NoFeePolicy struct{}

func (NoFeePolicy) Assess(b *domain.Booking, _, _ time.Time) Assessment {
	if b.PaymentStatus != domain.PaymentStatusPaid {
		return Assessment{}
	}
	return Assessment{RefundCents: b.TotalAmountCents}
}

func NewPolicy(cfg config.CancellationConfig) Policy {
	if cfg.Policy == "no_fee" {
		return NoFeePolicy{}
	}
	return NewTieredPolicy(cfg.Tiers)
}
