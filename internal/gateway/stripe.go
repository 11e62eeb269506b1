package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

const stripeCurrency = "brl"

// StripeDecider charges through a confirmed Stripe PaymentIntent. The
// reservation id is the idempotency key, so a redelivered event never
// charges twice.
type StripeDecider struct {
	api           *client.API
	paymentMethod string
}

func NewStripeDecider(secretKey, paymentMethod string) *StripeDecider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeDecider{
		api:           api,
		paymentMethod: paymentMethod,
	}
}

func (d *StripeDecider) Decide(ctx context.Context, charge Charge) (Decision, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(AmountInCents(charge)),
		Currency:      stripe.String(stripeCurrency),
		PaymentMethod: stripe.String(d.paymentMethod),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(fmt.Sprintf("reservation-%d", charge.ReservationID))
	params.AddMetadata("reservation_id", fmt.Sprintf("%d", charge.ReservationID))
	if charge.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(charge.CustomerEmail)
	}

	pi, err := d.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return Decision{Status: model.PaymentFailed, Reference: string(stripeErr.Code)}, nil
		}
		return Decision{}, fmt.Errorf("create payment intent: %w", err)
	}

	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return Decision{Status: model.PaymentApproved, Reference: pi.ID}, nil
	}
	return Decision{Status: model.PaymentFailed, Reference: pi.ID}, nil
}

// AmountInCents converts the charge amount to the smallest currency unit.
func AmountInCents(charge Charge) int64 {
	return charge.Amount.Shift(2).Round(0).IntPart()
}
