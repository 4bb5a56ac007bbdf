package stripewebhook

import (
	"context"

	pkgstripe "github.com/jconn5803/stripe-recurring-revenue/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

type stripeClientWrapper struct {
	api *stripe.Client
}

// NewStripeClient wraps the configured Stripe client so the webhook service
// can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeClient {
	if api == nil || api.API() == nil {
		return nil
	}
	return &stripeClientWrapper{api: api.API()}
}

func (w *stripeClientWrapper) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	return w.api.V1Customers.Retrieve(ctx, id, nil)
}

func (w *stripeClientWrapper) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	return w.api.V1Subscriptions.Retrieve(ctx, id, nil)
}
