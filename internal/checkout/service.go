package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/config"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/db/models"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

// CreateSessionRequest selects which recurring plan to start checkout for.
type CreateSessionRequest struct {
	SubscriptionType string `json:"subscription_type" validate:"required"`
}

// StripeCheckoutClient is the slice of the Stripe API the checkout service
// depends on.
type StripeCheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	CreateBillingPortalSession(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error)
}

type customerRepository interface {
	FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
}

type ServiceParams struct {
	Client       StripeCheckoutClient
	CustomerRepo customerRepository
	StripeConfig config.StripeConfig
	BaseURL      string
}

// Service creates provider-hosted checkout and billing portal sessions. The
// ledger is never written here; the webhook pipeline records the results of
// a completed checkout.
type Service struct {
	client    StripeCheckoutClient
	customers customerRepository
	stripeCfg config.StripeConfig
	baseURL   string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.CustomerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer repo required")
	}
	if params.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "base url required")
	}
	return &Service{
		client:    params.Client,
		customers: params.CustomerRepo,
		stripeCfg: params.StripeConfig,
		baseURL:   params.BaseURL,
	}, nil
}

// CreateSession starts a subscription checkout for the user and returns the
// hosted page URL. The user id rides along as client_reference_id so the
// completion webhook can link the provider customer back to the account.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, req CreateSessionRequest) (string, error) {
	priceID, ok := s.stripeCfg.PriceIDFor(req.SubscriptionType)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown subscription type")
	}
	if priceID == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "price id not configured for subscription type")
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:          stripe.String(s.baseURL + "/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(s.baseURL + "/api/v1/payments/cancel"),
		ClientReferenceID:   stripe.String(userID.String()),
		AllowPromotionCodes: stripe.Bool(true),
	}

	// Reuse the provider customer when the user already has one, so repeat
	// checkouts do not mint duplicate customer records upstream.
	customer, err := s.customers.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if customer != nil {
		params.Customer = stripe.String(customer.StripeCustomerID)
	}

	session, err := s.client.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if session == nil || session.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session missing redirect url")
	}
	return session.URL, nil
}

// CreateBillingPortalSession returns a hosted portal URL where the user can
// manage their subscription. It requires an existing provider customer.
func (s *Service) CreateBillingPortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	customer, err := s.customers.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if customer == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "no billing customer for user")
	}

	params := &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customer.StripeCustomerID),
		ReturnURL: stripe.String(s.baseURL),
	}
	session, err := s.client.CreateBillingPortalSession(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create billing portal session")
	}
	if session == nil || session.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "billing portal session missing redirect url")
	}
	return session.URL, nil
}
