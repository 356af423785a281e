// Package webhook authenticates payment-provider notifications and decodes
// them into typed events.
//
// Verification must run over the raw request body exactly as received. Any
// re-serialization before Verify invalidates the signature.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// EventType is the normalized kind of a provider event.
type EventType string

const (
	EventPaymentCompleted EventType = "payment_completed"
	// EventIgnored covers every event the reconciler does not act on. It is
	// acknowledged so the provider stops redelivering it.
	EventIgnored EventType = "ignored"
)

// Payment is the payload of a completed payment.
type Payment struct {
	// TransactionID is the gateway session id, the idempotency key.
	TransactionID string
	AmountCharged decimal.Decimal
	Currency      string
	Metadata      map[string]string
}

type Event struct {
	ID           string
	Type         EventType
	ProviderType string
	Payment      *Payment
}

// Verifier holds the shared secret for one webhook endpoint.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

func (v *Verifier) Verify(rawBody []byte, signatureHeader string) (*Event, error) {
	return Verify(rawBody, signatureHeader, v.secret)
}

// Verify checks signatureHeader against an HMAC-SHA256 of rawBody keyed by
// secret, compared in constant time, and decodes the event.
func Verify(rawBody []byte, signatureHeader, secret string) (*Event, error) {
	evt, err := stripewebhook.ConstructEventWithOptions(rawBody, signatureHeader, secret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	out := &Event{
		ID:           evt.ID,
		Type:         EventIgnored,
		ProviderType: string(evt.Type),
	}

	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		return out, nil
	}

	if evt.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, evt.ID)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: decoding checkout session: %w", ErrMalformedEvent, err)
	}

	// Delayed payment methods complete the session before the money moves;
	// those are reconciled on async_payment_succeeded instead.
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return out, nil
	}

	out.Type = EventPaymentCompleted
	out.Payment = &Payment{
		TransactionID: sess.ID,
		AmountCharged: money.FromMinor(sess.AmountTotal),
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}

	return out, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, stripewebhook.ErrNotSigned) ||
		errors.Is(err, stripewebhook.ErrInvalidHeader) ||
		errors.Is(err, stripewebhook.ErrNoValidSignature) ||
		errors.Is(err, stripewebhook.ErrTooOld)
}
