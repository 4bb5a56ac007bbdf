package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jconn5803/stripe-recurring-revenue/api/responses"
	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/logger"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (bool, error)
}

type stripeEventNormalizer interface {
	Normalize(payload []byte, sigHeader string) (*stripe.Event, error)
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// StripeWebhook receives provider billing events, verifies them, and hands
// them to the reconciliation service. Once an event passes normalization the
// endpoint always acknowledges with 200, including for skipped types and
// handler failures; the provider is never asked to retry an event this
// service chose not to, or failed to, apply.
func StripeWebhook(svc StripeWebhookService, normalizer stripeEventNormalizer, guard stripeWebhookGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || normalizer == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook pipeline unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		event, err := normalizer.Normalize(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithEventType(ctx, string(event.Type))
		}
		m.IncReceived(string(event.Type))

		if event.ID != "" {
			alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				m.IncSkipped(string(event.Type))
				writeAck(w)
				return
			}
		}

		handled, err := svc.HandleEvent(ctx, event)
		switch {
		case err != nil:
			m.IncFailed(string(event.Type))
			if event.ID != "" {
				if derr := guard.Delete(ctx, event.ID); derr != nil && logg != nil {
					// A mark that cannot be cleared suppresses redelivery of
					// this event until it expires.
					logg.Warn(logg.WithField(ctx, "error", derr.Error()), fmt.Sprintf("stripe event %s dedupe mark not cleared", event.ID))
				}
			}
			if logg != nil {
				logg.Error(ctx, fmt.Sprintf("stripe event %s failed", event.ID), err)
			}
		case !handled:
			m.IncSkipped(string(event.Type))
			if logg != nil {
				logg.Info(ctx, fmt.Sprintf("stripe event %s skipped", event.ID))
			}
		default:
			m.IncProcessed(string(event.Type))
			if logg != nil {
				logg.Info(ctx, fmt.Sprintf("stripe event %s processed", event.ID))
			}
		}

		writeAck(w)
	}
}

func writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
