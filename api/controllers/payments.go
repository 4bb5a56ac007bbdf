package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/api/middleware"
	"github.com/jconn5803/stripe-recurring-revenue/api/responses"
	"github.com/jconn5803/stripe-recurring-revenue/api/validators"
	"github.com/jconn5803/stripe-recurring-revenue/internal/checkout"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/logger"
)

// CheckoutService is the behavior the payment controllers need.
type CheckoutService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, req checkout.CreateSessionRequest) (string, error)
	CreateBillingPortalSession(ctx context.Context, userID uuid.UUID) (string, error)
}

// PaymentsCreateCheckoutSession starts a hosted checkout and redirects the
// browser to it with a 303.
func PaymentsCreateCheckoutSession(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body checkout.CreateSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.CreateSession(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.Redirect(w, r, url, http.StatusSeeOther)
	}
}

// PaymentsBillingPortal redirects the user to the provider's billing portal.
func PaymentsBillingPortal(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		url, err := svc.CreateBillingPortalSession(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.Redirect(w, r, url, http.StatusSeeOther)
	}
}

// PaymentsSuccess is the landing page after a completed checkout. The ledger
// is updated by the webhook, not by this page.
func PaymentsSuccess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, http.StatusOK, "<html><body><h1>Payment successful</h1><p>Your subscription is being activated.</p></body></html>")
	}
}

// PaymentsCancel is the landing page after an abandoned checkout.
func PaymentsCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, http.StatusOK, "<html><body><h1>Payment cancelled</h1><p>No charge was made.</p></body></html>")
	}
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
