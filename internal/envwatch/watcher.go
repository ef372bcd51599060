// Package envwatch observa el .env y refresca la credencial en memoria
// cuando alguien (el propio scheduler, relayctl o un operador) lo modifica.
package envwatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// ErrKeyMissing indica que el .env no trae la clave observada.
var ErrKeyMissing = errors.New("envwatch: key missing from env file")

// Setter recibe la credencial recargada (credstore.Store).
type Setter interface {
	SetCurrent(*jwt.Credential)
}

// Watcher recarga key desde path en cada evento del filesystem.
// No hay debounce: eventos duplicados son idempotentes.
type Watcher struct {
	path  string
	key   string
	store Setter

	// reloaded se llama después de cada Reload exitoso (tests).
	reloaded func(*jwt.Credential)
}

// New crea el Watcher. path se normaliza a absoluto.
func New(path, key string, store Setter) *Watcher {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Watcher{path: filepath.Clean(path), key: key, store: store}
}

// Reload lee el .env con godotenv, extrae la clave y actualiza el store.
func (w *Watcher) Reload() (*jwt.Credential, error) {
	vals, err := godotenv.Read(w.path)
	if err != nil {
		metrics.CredentialReloads.WithLabelValues("read_failed").Inc()
		return nil, fmt.Errorf("envwatch: read %s: %w", w.path, err)
	}
	raw, ok := vals[w.key]
	if !ok || raw == "" {
		metrics.CredentialReloads.WithLabelValues("missing_key").Inc()
		return nil, ErrKeyMissing
	}
	c := jwt.FromToken(raw)
	w.store.SetCurrent(c)
	metrics.CredentialReloads.WithLabelValues("ok").Inc()
	if w.reloaded != nil {
		w.reloaded(c)
	}
	return c, nil
}

// Run observa el directorio del archivo (los renames atómicos reemplazan el
// inodo, así que observar el archivo directo pierde eventos). Bloquea hasta
// que ctx se cancele.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("envwatch: new watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("envwatch: watch %s: %w", dir, err)
	}

	log := logger.From(ctx).With(logger.Component("envwatch"), logger.File(w.path))
	log.Info("watching env file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Info("env file changed, reloading credential", logger.String("event", ev.Op.String()))
			c, err := w.Reload()
			if err != nil {
				log.Warn("credential reload failed", logger.Err(err))
				continue
			}
			log.Debug("credential reloaded", logger.KeyID(c.KeyID), logger.ExpiresAt(c.ExpiresAt))
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("fsnotify error", logger.Err(err))
		}
	}
}
