package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jconn5803/stripe-recurring-revenue/api/controllers"
	webhookcontrollers "github.com/jconn5803/stripe-recurring-revenue/api/controllers/webhooks"
	"github.com/jconn5803/stripe-recurring-revenue/api/middleware"
	"github.com/jconn5803/stripe-recurring-revenue/internal/auth"
	"github.com/jconn5803/stripe-recurring-revenue/internal/entitlements"
	stripewebhook "github.com/jconn5803/stripe-recurring-revenue/internal/webhooks/stripe"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/config"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/db"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/logger"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/metrics"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/redis"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/sessions"
)

// PremiumFeatureKey is the entitlement lookup key gating subscriber content.
const PremiumFeatureKey = "premium"

type Params struct {
	Config             *config.Config
	Logger             *logger.Logger
	DB                 *db.Client
	Redis              *redis.Client
	SessionManager     *sessions.Manager
	AuthService        auth.Service
	RegisterService    auth.RegisterService
	CheckoutService    controllers.CheckoutService
	EntitlementService *entitlements.Service
	WebhookService     *stripewebhook.Service
	WebhookNormalizer  *stripewebhook.Normalizer
	WebhookGuard       *stripewebhook.IdempotencyGuard
	WebhookMetrics     *metrics.WebhookMetrics
	MetricsRegistry    *prometheus.Registry
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	requireAuth := middleware.Auth(cfg.JWT, p.SessionManager, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis))
	})

	if p.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.RegisterService, p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/event", webhookcontrollers.StripeWebhook(p.WebhookService, p.WebhookNormalizer, p.WebhookGuard, p.WebhookMetrics, logg))
		r.Get("/success", controllers.PaymentsSuccess())
		r.Get("/cancel", controllers.PaymentsCancel())

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/create-checkout-session", controllers.PaymentsCreateCheckoutSession(p.CheckoutService, logg))
			r.Get("/billing-portal", controllers.PaymentsBillingPortal(p.CheckoutService, logg))
		})
	})

	r.Route("/api/v1/premium", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireFeature(p.EntitlementService, PremiumFeatureKey, logg))
		r.Get("/", controllers.PremiumContent())
	})

	return r
}
