package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Métricas del ciclo de vida de la credencial y del relay. Viven en un paquete
// aparte para que credstore, doordash y http no se importen entre sí.

var (
	CredentialRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_refreshes_total",
		Help: "Credenciales firmadas por origen (startup|scheduler|relay) y resultado",
	}, []string{"source", "result"}) // result: ok|sign_failed|persist_failed

	CredentialExpiry = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "credential_expiry_timestamp_seconds",
		Help: "Unix exp de la credencial actual en memoria",
	})

	CredentialReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_reloads_total",
		Help: "Recargas del .env disparadas por el watcher",
	}, []string{"result"})

	RelayAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_attempts_total",
		Help: "Intentos salientes por proveedor y resultado",
	}, []string{"provider", "outcome"}) // outcome: ok|auth_error|error

	RelayDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_request_duration_seconds",
		Help:    "Latencia de las llamadas salientes",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Register registra todas las métricas en reg (o el default si es nil).
// Ignora AlreadyRegistered para que sea idempotente.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		CredentialRefreshes,
		CredentialExpiry,
		CredentialReloads,
		RelayAttempts,
		RelayDuration,
		HTTPRequests,
		HTTPDuration,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Handler expone /metrics sobre el gatherer global.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCredential actualiza el gauge de expiración.
func ObserveCredential(exp time.Time) {
	if exp.IsZero() {
		CredentialExpiry.Set(0)
		return
	}
	CredentialExpiry.Set(float64(exp.Unix()))
}

// ObserveRelay registra un intento saliente.
func ObserveRelay(provider, outcome string, d time.Duration) {
	RelayAttempts.WithLabelValues(provider, outcome).Inc()
	RelayDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// WithHTTP instrumenta requests entrantes. routePattern resuelve el label de
// path (p.ej. el patrón chi) para no explotar la cardinalidad con ids.
func WithHTTP(routePattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if routePattern != nil {
				if p := routePattern(r); p != "" {
					path = p
				}
			}
			method := strings.ToUpper(r.Method)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
