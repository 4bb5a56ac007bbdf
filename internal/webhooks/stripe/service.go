package stripewebhook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/internal/billing"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/db/models"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

// StripeClient is the slice of the Stripe API the reconciliation handlers
// need. Live lookups keep the ledger aligned with provider state instead of
// trusting event payloads.
type StripeClient interface {
	GetCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	BillingRepo       billing.Repository
	UserRepo          userRepository
	StripeClient      StripeClient
	TransactionRunner txRunner
}

// Service reconciles subscription lifecycle events against the local ledger.
type Service struct {
	billingRepo billing.Repository
	userRepo    userRepository
	stripe      StripeClient
	txRunner    txRunner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		billingRepo: params.BillingRepo,
		userRepo:    params.UserRepo,
		stripe:      params.StripeClient,
		txRunner:    params.TransactionRunner,
	}, nil
}

// HandleEvent dispatches a verified event to its reconciliation handler.
// The returned bool reports whether a handler ran; unrecognized event types
// are acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (bool, error) {
	if event == nil || event.Data == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return true, s.HandleCheckoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return true, s.HandleSubscriptionCancelled(ctx, event)
	case stripe.EventTypeInvoicePaymentFailed:
		return true, s.HandleInvoicePaymentFailed(ctx, event)
	case stripe.EventTypeInvoicePaid:
		// Recognized but nothing to reconcile.
		return false, nil
	default:
		return false, nil
	}
}

// HandleCheckoutCompleted records the customer and subscription created by a
// completed checkout session. Customer and subscription details come from
// live API lookups, not the event payload. Re-running for a customer that
// already exists refreshes the stored name only, and a subscription id that
// is already on the ledger is left untouched; each checkout mints a fresh
// subscription id.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	customerID := event.GetObjectValue("customer")
	subscriptionID := event.GetObjectValue("subscription")
	if customerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session missing customer id")
	}

	stripeCustomer, err := s.stripe.GetCustomer(ctx, customerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe customer")
	}

	var stripeSub *stripe.Subscription
	if subscriptionID != "" {
		stripeSub, err = s.stripe.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)

		customer, err := repo.FindCustomerByStripeID(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			// The reference id links the provider customer to an account.
			// Only new-customer creation needs it; re-checkouts for a known
			// customer proceed without one.
			userID, err := uuid.Parse(event.GetObjectValue("client_reference_id"))
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "client_reference_id is not a user id")
			}
			if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
			}
			customer = &models.Customer{
				UserID:           userID,
				StripeCustomerID: customerID,
				CustomerName:     stripeCustomer.Name,
				CreatedAt:        time.Unix(stripeCustomer.Created, 0).UTC(),
			}
			if err := repo.CreateCustomer(ctx, customer); err != nil {
				return err
			}
		} else {
			customer.CustomerName = stripeCustomer.Name
			if err := repo.UpdateCustomer(ctx, customer); err != nil {
				return err
			}
		}

		if stripeSub == nil {
			return nil
		}
		stored, err := repo.FindSubscriptionByStripeID(ctx, stripeSub.ID)
		if err != nil {
			return err
		}
		if stored != nil {
			return nil
		}
		return repo.CreateSubscription(ctx, &models.Subscription{
			StripeCustomerID:     customerID,
			StripeSubscriptionID: stripeSub.ID,
			Status:               string(stripeSub.Status),
			ProductID:            subscriptionProductID(stripeSub),
			PriceID:              subscriptionPriceID(stripeSub),
			CreatedAt:            time.Unix(stripeSub.Created, 0).UTC(),
		})
	})
}

// HandleSubscriptionCancelled marks a subscription cancelled. An id with no
// matching ledger row is acknowledged without changes, which also makes
// redelivery of the same cancellation harmless.
func (s *Service) HandleSubscriptionCancelled(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("id")
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionByStripeID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if stored == nil {
			return nil
		}
		stored.Status = models.SubscriptionStatusCancelled
		return repo.UpdateSubscription(ctx, stored)
	})
}

// HandleInvoicePaymentFailed marks the affected subscription past_due.
//
// The object id of an invoice.payment_failed event is the invoice id, but
// this lookup treats it as a subscription id, matching long-standing
// behavior that downstream tooling depends on. In practice the row is never
// found and the event is a no-op.
func (s *Service) HandleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("id")
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionByStripeID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if stored == nil {
			return nil
		}
		stored.Status = models.SubscriptionStatusPastDue
		return repo.UpdateSubscription(ctx, stored)
	})
}

// HandleSubscriptionUpdated overwrites a stored subscription's status with
// the payload's status field, verbatim. It is not registered in the
// HandleEvent dispatch table; enable it by subscribing to
// customer.subscription.updated and adding a case there.
func (s *Service) HandleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("id")
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
	}
	status := event.GetObjectValue("status")

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionByStripeID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if stored == nil {
			return nil
		}
		stored.Status = status
		return repo.UpdateSubscription(ctx, stored)
	})
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

func subscriptionProductID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price == nil || price.Product == nil {
		return ""
	}
	return price.Product.ID
}
