package checkout

import (
	"context"

	pkgstripe "github.com/jconn5803/stripe-recurring-revenue/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

type stripeClientWrapper struct {
	api *stripe.Client
}

// NewStripeClient wraps the configured Stripe client so the checkout service
// can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeCheckoutClient {
	if api == nil || api.API() == nil {
		return nil
	}
	return &stripeClientWrapper{api: api.API()}
}

func (w *stripeClientWrapper) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	return w.api.V1CheckoutSessions.Create(ctx, params)
}

func (w *stripeClientWrapper) CreateBillingPortalSession(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error) {
	return w.api.V1BillingPortalSessions.Create(ctx, params)
}
