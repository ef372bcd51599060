package credstore

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// Orígenes de un refresh (label de métricas y campo de log).
const (
	SourceStartup   = "startup"
	SourceScheduler = "scheduler"
	SourceRelay     = "relay"
)

// Signer produce credenciales nuevas (jwt.Signer en producción).
type Signer interface {
	Sign() (*jwt.Credential, error)
}

// Refresher es el único camino de mutación "firmar → persistir → setCurrent".
// Refresh concurrentes (p.ej. varios requests que reciben authentication_error
// a la vez) se colapsan en una sola firma.
type Refresher struct {
	signer Signer
	store  *Store
	group  singleflight.Group
}

// NewRefresher crea el Refresher.
func NewRefresher(signer Signer, store *Store) *Refresher {
	return &Refresher{signer: signer, store: store}
}

// Store expone el Store subyacente.
func (r *Refresher) Store() *Store { return r.store }

// Refresh firma una credencial nueva, la persiste y la deja como actual.
// Un fallo de persistencia NO falla el refresh: la memoria queda como
// autoritativa hasta la próxima escritura exitosa.
func (r *Refresher) Refresh(ctx context.Context, source string) (*jwt.Credential, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.refresh(ctx, source)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.From(ctx).Debug("credential refresh coalesced", logger.Source(source))
	}
	return v.(*jwt.Credential), nil
}

func (r *Refresher) refresh(ctx context.Context, source string) (*jwt.Credential, error) {
	log := logger.From(ctx).With(logger.Component("credstore"), logger.Source(source))

	cred, err := r.signer.Sign()
	if err != nil {
		metrics.CredentialRefreshes.WithLabelValues(source, "sign_failed").Inc()
		log.Error("credential sign failed", logger.Err(err))
		return nil, err
	}

	result := "ok"
	if err := r.store.Persist(cred); err != nil {
		result = "persist_failed"
		if !errors.Is(err, ErrPersist) {
			log.Error("unexpected persist error", logger.Err(err))
		}
	}
	r.store.SetCurrent(cred)
	metrics.CredentialRefreshes.WithLabelValues(source, result).Inc()

	log.Info("credential refreshed",
		logger.KeyID(cred.KeyID),
		logger.ExpiresAt(cred.ExpiresAt),
		logger.Bool("persisted", result == "ok"),
	)
	return cred, nil
}
