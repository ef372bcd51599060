// Package router arma el árbol de rutas chi de la superficie entrante.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/dashpay-relay/internal/http/controllers/delivery"
	"github.com/dropDatabas3/dashpay-relay/internal/http/controllers/health"
	"github.com/dropDatabas3/dashpay-relay/internal/http/controllers/payments"
	httperrors "github.com/dropDatabas3/dashpay-relay/internal/http/errors"
	mw "github.com/dropDatabas3/dashpay-relay/internal/http/middlewares"
	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/rate"
)

// Deps agrupa lo que necesita el router. Payments nil => la ruta no se monta
// (sin STRIPE_SECRET_KEY). Limiter nil => sin rate limiting.
type Deps struct {
	Delivery    *delivery.Controller
	Payments    *payments.Controller
	Health      *health.Controller
	Limiter     rate.Limiter
	CORSOrigins []string
	Metrics     http.Handler
}

// New devuelve el handler raíz con el stack de middlewares global:
// recover -> request id -> logging -> metrics -> security headers -> cors -> rate.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		metrics.WithHTTP(routePattern),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
		mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:   d.Limiter,
			Whitelist: []string{"/healthz", "/readyz", "/metrics"},
		}),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	if d.Delivery != nil {
		r.Route("/delivery", func(r chi.Router) {
			r.Post("/quote", d.Delivery.Quote)
			r.Post("/{id}/accept", d.Delivery.Accept)
			r.Get("/{id}", d.Delivery.Get)
		})
	}
	if d.Payments != nil {
		r.Post("/create-payment-intent", d.Payments.CreateIntent)
	}

	return r
}

// routePattern usa el patrón chi como label de métricas ("/delivery/{id}").
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
