package entitlements

import (
	"context"

	pkgstripe "github.com/jconn5803/stripe-recurring-revenue/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

const defaultPageCap = 100

type stripeClientWrapper struct {
	api     *stripe.Client
	pageCap int
}

// NewStripeClient wraps the configured Stripe client so the entitlement
// service can be tested. pageCap bounds how many entitlements a single check
// will scan.
func NewStripeClient(api *pkgstripe.Client, pageCap int) EntitlementClient {
	if api == nil || api.API() == nil {
		return nil
	}
	if pageCap <= 0 {
		pageCap = defaultPageCap
	}
	return &stripeClientWrapper{api: api.API(), pageCap: pageCap}
}

func (w *stripeClientWrapper) ListActiveLookupKeys(ctx context.Context, stripeCustomerID string) ([]string, error) {
	params := &stripe.EntitlementsActiveEntitlementListParams{
		Customer: stripe.String(stripeCustomerID),
	}
	params.Limit = stripe.Int64(int64(w.pageCap))

	keys := make([]string, 0, 4)
	for entitlement, err := range w.api.V1EntitlementsActiveEntitlements.List(ctx, params) {
		if err != nil {
			return nil, err
		}
		if entitlement == nil {
			continue
		}
		keys = append(keys, entitlement.LookupKey)
		if len(keys) >= w.pageCap {
			break
		}
	}
	return keys, nil
}
