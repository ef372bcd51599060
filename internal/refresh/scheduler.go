// Package refresh firma y persiste credenciales nuevas en intervalos fijos.
package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/dashpay-relay/internal/credstore"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// DefaultInterval coincide con la vida de la credencial.
const DefaultInterval = jwt.CredentialTTL

// ErrAlreadyRunning se devuelve si Run se llama dos veces a la vez.
var ErrAlreadyRunning = errors.New("refresh: scheduler already running")

// Refresher es lo que el scheduler dispara en cada tick (credstore.Refresher).
type Refresher interface {
	Refresh(ctx context.Context, source string) (*jwt.Credential, error)
}

// Ticker abstrae time.Ticker para poder inyectar ticks en tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Scheduler: Idle hasta Run; en Running firma una vez de inmediato y después
// en cada tick. Un tick fallido no cancela los siguientes.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	running   atomic.Bool
}

// New crea el Scheduler. interval <= 0 => DefaultInterval.
func New(r Refresher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		refresher: r,
		interval:  interval,
		newTicker: func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} },
	}
}

// Running reporta si el scheduler salió de Idle.
func (s *Scheduler) Running() bool { return s.running.Load() }

// Run bloquea hasta que ctx se cancele (en la práctica, el fin del proceso).
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	log := logger.From(ctx).With(logger.Component("refresh"))
	log.Info("credential scheduler started", logger.Duration(s.interval))

	s.tick(ctx, log, credstore.SourceStartup)

	t := s.newTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("credential scheduler stopped")
			return nil
		case <-t.C():
			s.tick(ctx, log, credstore.SourceScheduler)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, log *zap.Logger, source string) {
	if _, err := s.refresher.Refresh(ctx, source); err != nil {
		log.Warn("scheduled refresh failed", logger.Source(source), logger.Err(err))
	}
}
