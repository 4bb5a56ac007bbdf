package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/api/responses"
	"github.com/jconn5803/stripe-recurring-revenue/internal/entitlements"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/logger"
)

type entitlementChecker interface {
	HasFeature(ctx context.Context, userID uuid.UUID, feature string) entitlements.Decision
}

// RequireFeature gates a route behind an active entitlement. It must run
// after Auth. A provider failure denies access rather than letting the
// request through on unknown state.
func RequireFeature(checker entitlementChecker, feature string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, err := uuid.Parse(UserIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			decision := checker.HasFeature(ctx, userID, feature)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if decision.Reason == entitlements.DenyReasonProviderError {
				cause := decision.Err
				if cause == nil {
					cause = pkgerrors.New(pkgerrors.CodeDependency, "entitlement check failed")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "entitlement check"))
				return
			}

			responses.WriteError(ctx, logg, w, pkgerrors.
				New(pkgerrors.CodeForbidden, "feature not available on current plan").
				WithDetails(map[string]any{
					"feature": feature,
					"reason":  string(decision.Reason),
				}))
		})
	}
}
