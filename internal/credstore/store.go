// Package credstore mantiene la credencial actual en memoria y la persiste
// en el registro durable (.env).
//
// Current/SetCurrent son una sola asignación atómica: el scheduler, el
// watcher y el relay escriben por acá sin locks. Persist y SetCurrent no son
// transaccionales entre sí; el scheduler vuelve a converger en cada tick.
package credstore

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// DefaultKey es la línea del .env que guarda el token.
const DefaultKey = "DOORDASH_API_KEY"

// ErrPersist envuelve cualquier fallo de escritura del registro durable.
var ErrPersist = errors.New("credstore: persist failed")

// Record es el registro durable clave=valor (ver envfile.File).
type Record interface {
	Lookup(key string) (string, error)
	Replace(key, value string) error
}

// Store es el dueño único de la credencial "actual".
type Store struct {
	key     string
	record  Record
	current atomic.Pointer[jwt.Credential]
}

// New crea un Store sobre record. key vacío => DefaultKey.
func New(record Record, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{key: key, record: record}
}

// Key devuelve la clave del registro que maneja este Store.
func (s *Store) Key() string { return s.key }

// Current devuelve la última credencial observada (nil si todavía no hay).
func (s *Store) Current() *jwt.Credential {
	return s.current.Load()
}

// SetCurrent reemplaza la credencial en memoria. nil se ignora.
func (s *Store) SetCurrent(c *jwt.Credential) {
	if c == nil {
		return
	}
	s.current.Store(c)
	metrics.ObserveCredential(c.ExpiresAt)
}

// Persist escribe el token en el registro durable. El error se loguea acá y
// se devuelve envuelto en ErrPersist; nunca es fatal para el proceso.
func (s *Store) Persist(c *jwt.Credential) error {
	if c == nil {
		return fmt.Errorf("%w: nil credential", ErrPersist)
	}
	if s.record == nil {
		return fmt.Errorf("%w: no durable record configured", ErrPersist)
	}
	if err := s.record.Replace(s.key, c.Token); err != nil {
		logger.L().Error("credential persist failed",
			logger.Component("credstore"),
			logger.KeyID(c.KeyID),
			logger.Err(err),
		)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	logger.L().Info("credential persisted",
		logger.Component("credstore"),
		logger.String("key", s.key),
		logger.ExpiresAt(c.ExpiresAt),
	)
	return nil
}

// Load lee el registro durable y, si trae valor, lo deja como actual.
// Devuelve la credencial cargada (nil si la clave no está).
func (s *Store) Load() (*jwt.Credential, error) {
	if s.record == nil {
		return nil, nil
	}
	raw, err := s.record.Lookup(s.key)
	if err != nil {
		return nil, err
	}
	c := jwt.FromToken(raw)
	s.SetCurrent(c)
	return c, nil
}
