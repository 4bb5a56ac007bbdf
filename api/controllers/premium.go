package controllers

import (
	"net/http"

	"github.com/jconn5803/stripe-recurring-revenue/api/middleware"
	"github.com/jconn5803/stripe-recurring-revenue/api/responses"
)

// PremiumContent serves the subscriber-only resource. Access control happens
// in the entitlement middleware; by the time this runs the caller is allowed.
func PremiumContent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"content": "premium",
			"user_id": middleware.UserIDFromContext(r.Context()),
		})
	}
}
