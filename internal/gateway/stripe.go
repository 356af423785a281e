// Package gateway opens hosted payment sessions with the card-payment
// provider.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/MrJamesThe3rd/pawfund/internal/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

// Stripe creates Stripe Checkout sessions in payment mode.
type Stripe struct {
	sc         *client.API
	successURL string
	cancelURL  string
}

// NewStripe builds a gateway for secretKey. A nil backends value uses the
// live Stripe API.
func NewStripe(secretKey, successURL, cancelURL string, backends *stripe.Backends) *Stripe {
	return &Stripe{
		sc:         client.New(secretKey, backends),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (g *Stripe) CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.DonorID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(money.ToMinor(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating stripe checkout session: %w", err)
	}

	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}
