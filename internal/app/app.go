// Package app arma el relay a partir de la configuración y gobierna su ciclo
// de vida: scheduler, watcher del .env y servidor HTTP corren bajo un mismo
// errgroup y se detienen juntos cuando se cancela el contexto.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/dashpay-relay/internal/config"
	"github.com/dropDatabas3/dashpay-relay/internal/credstore"
	"github.com/dropDatabas3/dashpay-relay/internal/doordash"
	"github.com/dropDatabas3/dashpay-relay/internal/envfile"
	"github.com/dropDatabas3/dashpay-relay/internal/envwatch"
	"github.com/dropDatabas3/dashpay-relay/internal/http/controllers/delivery"
	"github.com/dropDatabas3/dashpay-relay/internal/http/controllers/health"
	paymentsctl "github.com/dropDatabas3/dashpay-relay/internal/http/controllers/payments"
	"github.com/dropDatabas3/dashpay-relay/internal/http/router"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
	"github.com/dropDatabas3/dashpay-relay/internal/payments"
	"github.com/dropDatabas3/dashpay-relay/internal/rate"
	"github.com/dropDatabas3/dashpay-relay/internal/refresh"
)

// shutdownTimeout acota el drenado de requests en vuelo.
const shutdownTimeout = 10 * time.Second

// App es el relay armado y listo para Run.
type App struct {
	cfg       *config.Config
	store     *credstore.Store
	refresher *credstore.Refresher
	scheduler *refresh.Scheduler
	watcher   *envwatch.Watcher
	server    *http.Server
	redis     *rdb.Client
}

type options struct {
	ddHTTP        *http.Client
	stripeBackend stripe.Backend
	registerer    prometheus.Registerer
}

// Option ajusta el armado (principalmente para tests).
type Option func(*options)

// WithDoorDashHTTPClient reemplaza el http.Client saliente hacia DoorDash.
func WithDoorDashHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.ddHTTP = hc }
}

// WithStripeBackend apunta el SDK de Stripe a otro backend.
func WithStripeBackend(b stripe.Backend) Option {
	return func(o *options) { o.stripeBackend = b }
}

// WithRegisterer registra las métricas en reg en vez del registry global.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New valida la identity, carga la credencial persistida (si hay) y arma
// todos los componentes. No arranca nada.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, fn := range opts {
		fn(&o)
	}

	log := logger.L().With(logger.Component("app"))

	signer, err := jwt.NewSigner(cfg.Identity())
	if err != nil {
		return nil, err
	}
	if err := metrics.Register(o.registerer); err != nil {
		return nil, fmt.Errorf("app: register metrics: %w", err)
	}

	record := envfile.New(cfg.Credential.EnvFile)
	store := credstore.New(record, cfg.Credential.Key)
	if c, err := store.Load(); err != nil {
		log.Warn("no persisted credential loaded", logger.File(record.Path), logger.Err(err))
	} else if c != nil {
		log.Info("persisted credential loaded", logger.KeyID(c.KeyID), logger.ExpiresAt(c.ExpiresAt))
	}

	refresher := credstore.NewRefresher(signer, store)
	a := &App{
		cfg:       cfg,
		store:     store,
		refresher: refresher,
		scheduler: refresh.New(refresher, cfg.RefreshInterval()),
	}
	if cfg.Credential.Watch {
		a.watcher = envwatch.New(record.Path, cfg.Credential.Key, store)
	}

	var ddOpts []doordash.Option
	if o.ddHTTP != nil {
		ddOpts = append(ddOpts, doordash.WithHTTPClient(o.ddHTTP))
	}
	dd := doordash.New(cfg.DoorDash.BaseURL, store, refresher, ddOpts...)

	deps := router.Deps{
		Delivery:    delivery.NewController(dd),
		Health:      health.NewController(store, a.scheduler),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Metrics:     metrics.Handler(),
	}
	if cfg.Stripe.SecretKey != "" {
		deps.Payments = paymentsctl.NewController(payments.NewStripe(cfg.Stripe.SecretKey, o.stripeBackend))
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, /create-payment-intent disabled")
	}
	if cfg.Rate.Enabled {
		deps.Limiter = a.buildLimiter(log)
	}

	readTimeout, writeTimeout := cfg.ServerTimeouts()
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.New(deps),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
	return a, nil
}

func (a *App) buildLimiter(log *zap.Logger) rate.Limiter {
	if a.cfg.Redis.Addr == "" {
		log.Info("rate limiting in memory")
		return rate.NewMemoryLimiter(a.cfg.RateMax(), a.cfg.RateWindow())
	}
	a.redis = rdb.NewClient(&rdb.Options{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB})
	log.Info("rate limiting on redis", logger.String("addr", a.cfg.Redis.Addr))
	return rate.NewRedisLimiter(a.redis, a.cfg.Redis.Prefix, a.cfg.RateMax(), a.cfg.RateWindow())
}

// Store expone el credential store (tests, diagnósticos).
func (a *App) Store() *credstore.Store { return a.store }

// Handler expone el handler raíz.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Run escucha en cfg.Server.Addr y bloquea hasta que ctx se cancele.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve es Run sobre un listener ya abierto. Si cualquier componente falla,
// el resto se detiene; la cancelación de ctx es un apagado limpio (nil).
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.From(ctx).With(logger.Component("app"))
	defer a.close(log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})

	if a.watcher != nil {
		g.Go(func() error {
			// sin watcher el relay sigue funcionando; solo se pierden
			// las rotaciones hechas por afuera del proceso.
			if err := a.watcher.Run(gctx); err != nil {
				log.Warn("env file watcher disabled", logger.Err(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) close(log *zap.Logger) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn("redis close failed", logger.Err(err))
		}
	}
}
