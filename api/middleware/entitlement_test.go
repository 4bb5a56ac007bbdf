package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jconn5803/stripe-recurring-revenue/internal/entitlements"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
)

type stubEntitlementChecker struct {
	decision entitlements.Decision
}

func (s stubEntitlementChecker) HasFeature(ctx context.Context, userID uuid.UUID, feature string) entitlements.Decision {
	return s.decision
}

func serveWithFeatureGuard(t *testing.T, decision entitlements.Decision, withUser bool) *httptest.ResponseRecorder {
	t.Helper()
	handler := RequireFeature(stubEntitlementChecker{decision: decision}, "premium", nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/premium", nil)
	if withUser {
		req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestRequireFeatureAllows(t *testing.T) {
	resp := serveWithFeatureGuard(t, entitlements.Allow(), true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequireFeatureDeniesWithoutUser(t *testing.T) {
	resp := serveWithFeatureGuard(t, entitlements.Allow(), false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireFeatureDeniesNotEntitled(t *testing.T) {
	resp := serveWithFeatureGuard(t, entitlements.Deny(entitlements.DenyReasonNotEntitled, nil), true)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireFeatureFailsClosedOnProviderError(t *testing.T) {
	decision := entitlements.Deny(
		entitlements.DenyReasonProviderError,
		pkgerrors.New(pkgerrors.CodeDependency, "stripe unavailable"),
	)
	resp := serveWithFeatureGuard(t, decision, true)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
