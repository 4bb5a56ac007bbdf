package entitlements

import (
	"context"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/db/models"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
)

// DenyReason explains why an entitlement check refused access.
type DenyReason string

const (
	DenyReasonNone          DenyReason = ""
	DenyReasonNoCustomer    DenyReason = "no_customer"
	DenyReasonNotEntitled   DenyReason = "not_entitled"
	DenyReasonProviderError DenyReason = "provider_error"
)

// Decision is the outcome of an entitlement check. Any failure along the way
// denies access; access is never granted on stale or missing data.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Err     error
}

// Allow is the decision granting access.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a refusal with the given reason.
func Deny(reason DenyReason, err error) Decision {
	return Decision{Allowed: false, Reason: reason, Err: err}
}

// EntitlementClient lists the feature lookup keys currently active for a
// provider customer.
type EntitlementClient interface {
	ListActiveLookupKeys(ctx context.Context, stripeCustomerID string) ([]string, error)
}

type customerRepository interface {
	FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
}

type ServiceParams struct {
	CustomerRepo customerRepository
	Client       EntitlementClient
}

// Service answers feature-gating questions with a live provider lookup per
// check. Entitlements are not cached locally, so a cancellation processed by
// the provider takes effect on the next request.
type Service struct {
	customers customerRepository
	client    EntitlementClient
}

func NewService(params ServiceParams) (*Service, error) {
	if params.CustomerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer repo required")
	}
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlement client required")
	}
	return &Service{
		customers: params.CustomerRepo,
		client:    params.Client,
	}, nil
}

// HasFeature reports whether the user's provider customer currently holds an
// active entitlement with the given lookup key.
func (s *Service) HasFeature(ctx context.Context, userID uuid.UUID, feature string) Decision {
	if feature == "" {
		return Deny(DenyReasonNotEntitled, nil)
	}

	customer, err := s.customers.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return Deny(DenyReasonProviderError, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer"))
	}
	if customer == nil {
		return Deny(DenyReasonNoCustomer, nil)
	}

	keys, err := s.client.ListActiveLookupKeys(ctx, customer.StripeCustomerID)
	if err != nil {
		return Deny(DenyReasonProviderError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active entitlements"))
	}

	for _, key := range keys {
		if key == feature {
			return Allow()
		}
	}
	return Deny(DenyReasonNotEntitled, nil)
}
