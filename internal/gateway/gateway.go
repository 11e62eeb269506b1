// Package gateway decides the outcome of a reservation payment. The payment
// consumer only talks to a Decider, so a real gateway can replace the
// default approval without touching the consumer loop.
package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Thiagobarros01/hotel-reservation/config"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

type Charge struct {
	ReservationID uint
	Amount        decimal.Decimal
	CustomerEmail string
}

type Decision struct {
	Status    model.PaymentStatus
	Reference string
}

// Decider returns the payment outcome for a charge. An error means no
// decision could be made and the charge should be attempted again later; a
// declined charge is a Decision with PaymentFailed.
type Decider interface {
	Decide(ctx context.Context, charge Charge) (Decision, error)
}

// AlwaysApprove approves every charge.
type AlwaysApprove struct{}

func (AlwaysApprove) Decide(context.Context, Charge) (Decision, error) {
	return Decision{Status: model.PaymentApproved}, nil
}

func New(cfg *config.Config) (Decider, error) {
	switch cfg.PaymentGateway {
	case "", "approve":
		return AlwaysApprove{}, nil
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("PAYMENT_GATEWAY=stripe requires STRIPE_SECRET_KEY")
		}
		return NewStripeDecider(cfg.StripeSecretKey, cfg.StripePaymentMethod), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.PaymentGateway)
	}
}
