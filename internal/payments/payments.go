// Package payments crea PaymentIntents en Stripe.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/dropDatabas3/dashpay-relay/internal/metrics"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

const providerName = "stripe"

// maxAmount es el mayor monto (unidades mayores) que sobrevive a *100 en int64.
const maxAmount = math.MaxInt64 / 100

// ErrInvalidInput agrupa errores de validación del input (400 hacia el cliente).
var ErrInvalidInput = errors.New("payments: invalid input")

// IntentCreator es la porción del SDK de Stripe que usamos (paymentintent.Client).
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// CreateIntentInput: Amount en unidades mayores (se multiplica por 100).
type CreateIntentInput struct {
	Amount          int64
	Currency        string
	PaymentMethodID string
}

// Service crea PaymentIntents confirmados al instante.
type Service struct {
	intents IntentCreator
}

// New crea el Service sobre un IntentCreator arbitrario (tests).
func New(intents IntentCreator) *Service {
	return &Service{intents: intents}
}

// NewStripe arma el Service con el backend real de Stripe. backend nil => API pública.
func NewStripe(secretKey string, backend stripe.Backend) *Service {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return New(&paymentintent.Client{B: backend, Key: secretKey})
}

// CreatePaymentIntent crea y confirma el intent; devuelve el client_secret.
func (s *Service) CreatePaymentIntent(ctx context.Context, in CreateIntentInput) (string, error) {
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	pm := strings.TrimSpace(in.PaymentMethodID)
	switch {
	case in.Amount <= 0:
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	case in.Amount > maxAmount:
		return "", fmt.Errorf("%w: amount too large", ErrInvalidInput)
	case currency == "":
		return "", fmt.Errorf("%w: currency is required", ErrInvalidInput)
	case pm == "":
		return "", fmt.Errorf("%w: paymentMethodId is required", ErrInvalidInput)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(in.Amount * 100),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(pm),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	log := logger.From(ctx).With(logger.Component("payments"), logger.Provider(providerName))

	pi, err := s.intents.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) {
			metrics.RelayAttempts.WithLabelValues(providerName, "error").Inc()
			log.Error("create payment intent failed",
				logger.Status(serr.HTTPStatusCode),
				logger.ErrorCode(string(serr.Code)),
				logger.String("message", serr.Msg),
			)
			return "", serr
		}
		metrics.RelayAttempts.WithLabelValues(providerName, "error").Inc()
		log.Error("create payment intent failed", logger.Err(err))
		return "", fmt.Errorf("payments: create intent: %w", err)
	}
	metrics.RelayAttempts.WithLabelValues(providerName, "ok").Inc()
	log.Info("payment intent created", logger.ID(pi.ID), logger.String("status", string(pi.Status)))
	return pi.ClientSecret, nil
}

// Message devuelve el texto que se expone al cliente: el mensaje de Stripe si
// lo hay, el de validación, o uno genérico.
func Message(err error) string {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return serr.Msg
	}
	if errors.Is(err, ErrInvalidInput) {
		return err.Error()
	}
	return "Failed to create payment intent"
}
