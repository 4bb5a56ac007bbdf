package stripewebhook

import (
	"encoding/json"

	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// Normalizer turns a raw webhook request into a verified stripe.Event.
// With a signing secret configured it enforces HMAC signature verification;
// without one it decodes the payload as-is, which is only acceptable for
// local development against the Stripe CLI.
type Normalizer struct {
	signingSecret string
}

// NewNormalizer builds a normalizer. An empty signing secret disables
// signature verification.
func NewNormalizer(signingSecret string) *Normalizer {
	return &Normalizer{signingSecret: signingSecret}
}

// Verifying reports whether signature verification is enforced.
func (n *Normalizer) Verifying() bool {
	return n.signingSecret != ""
}

// Normalize parses the payload into a stripe.Event. Any failure here maps to
// a validation error so the provider sees a 400 and retries with a fresh
// signature.
func (n *Normalizer) Normalize(payload []byte, sigHeader string) (*stripe.Event, error) {
	if len(payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook payload")
	}

	if n.signingSecret != "" {
		if sigHeader == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing")
		}
		event, err := webhook.ConstructEvent(payload, sigHeader, n.signingSecret)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature")
		}
		return &event, nil
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	if event.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event type missing")
	}
	return &event, nil
}
