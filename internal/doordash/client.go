// Package doordash es el relay hacia DoorDash Drive: adjunta la credencial
// actual como Bearer y, ante un authentication_error, regenera la credencial
// una sola vez y reintenta.
package doordash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/dashpay-relay/internal/credstore"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

const (
	// DefaultBaseURL es la API pública de Drive.
	DefaultBaseURL = "https://openapi.doordash.com"

	providerName = "doordash"

	// maxAttempts: primer intento + un retry tras refrescar la credencial.
	maxAttempts = 2

	maxBodyBytes = 4 << 20
)

// ErrNoCredential: todavía no hay credencial en memoria.
var ErrNoCredential = errors.New("doordash: no current credential")

// CredentialSource expone la credencial actual (credstore.Store).
type CredentialSource interface {
	Current() *jwt.Credential
}

// Refresher fuerza firma + persistencia + setCurrent (credstore.Refresher).
type Refresher interface {
	Refresh(ctx context.Context, source string) (*jwt.Credential, error)
}

// Client llama a DoorDash Drive con la credencial del store.
type Client struct {
	baseURL   string
	http      *http.Client
	creds     CredentialSource
	refresher Refresher
}

// Option configura el Client.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client (default: http.DefaultClient, sin timeout propio).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New crea el Client. baseURL vacío => DefaultBaseURL. refresher nil => sin
// retry: el primer error (incluido authentication_error) se devuelve tal cual.
func New(baseURL string, creds CredentialSource, refresher Refresher, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   baseURL,
		http:      http.DefaultClient,
		creds:     creds,
		refresher: refresher,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do es la llamada del relay: a lo sumo dos intentos, y el segundo solo si el
// primero falló con authentication_error. body se serializa a JSON (nil = sin body).
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("doordash: encode request: %w", err)
		}
		payload = b
	}

	log := logger.From(ctx).With(
		logger.Component("doordash"),
		logger.Method(method),
		logger.Path(path),
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		cred := c.creds.Current()
		if cred == nil {
			lastErr = ErrNoCredential
		} else {
			out, err := c.send(ctx, method, path, payload, cred.Token)
			if err == nil {
				return out, nil
			}
			lastErr = err
		}

		var apiErr *APIError
		if errors.As(lastErr, &apiErr) {
			log.Warn("doordash request failed",
				logger.Attempt(attempt),
				logger.Status(apiErr.StatusCode),
				logger.ErrorCode(apiErr.Code),
				logger.String("message", apiErr.Message),
			)
		} else {
			log.Warn("doordash request failed", logger.Attempt(attempt), logger.Err(lastErr))
		}

		retryable := IsAuthenticationError(lastErr) || errors.Is(lastErr, ErrNoCredential)
		if !retryable || attempt == maxAttempts || c.refresher == nil {
			return nil, lastErr
		}

		log.Info("credential rejected, regenerating and retrying")
		if _, err := c.refresher.Refresh(ctx, credstore.SourceRelay); err != nil {
			log.Error("forced credential refresh failed", logger.Err(err))
			return nil, errors.Join(lastErr, fmt.Errorf("doordash: refresh credential: %w", err))
		}
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (json.RawMessage, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("doordash: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveRelay(providerName, "error", time.Since(start))
		return nil, fmt.Errorf("doordash: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ObserveRelay(providerName, "error", time.Since(start))
		return nil, fmt.Errorf("doordash: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, b)
		outcome := "error"
		if apiErr.Code == CodeAuthenticationError {
			outcome = "auth_error"
		}
		metrics.ObserveRelay(providerName, outcome, time.Since(start))
		return nil, apiErr
	}

	metrics.ObserveRelay(providerName, "ok", time.Since(start))
	if len(bytes.TrimSpace(b)) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(b), nil
}
