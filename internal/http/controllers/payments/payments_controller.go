// Package payments expone POST /create-payment-intent.
package payments

import (
	"context"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/dashpay-relay/internal/http/errors"
	"github.com/dropDatabas3/dashpay-relay/internal/http/dto"
	"github.com/dropDatabas3/dashpay-relay/internal/http/helpers"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
	svc "github.com/dropDatabas3/dashpay-relay/internal/payments"
)

// IntentService es la porción de payments.Service que usa el controller.
type IntentService interface {
	CreatePaymentIntent(ctx context.Context, in svc.CreateIntentInput) (string, error)
}

type Controller struct {
	service IntentService
}

func NewController(service IntentService) *Controller {
	return &Controller{service: service}
}

// CreateIntent maneja POST /create-payment-intent.
func (c *Controller) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.CreatePaymentIntentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	secret, err := c.service.CreatePaymentIntent(ctx, svc.CreateIntentInput{
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		if errors.Is(err, svc.ErrInvalidInput) {
			httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithDetail(err.Error()))
			return
		}
		logger.From(ctx).Error("create payment intent failed", logger.Op("PaymentsController.CreateIntent"), logger.Err(err))
		helpers.WriteErrorJSON(w, http.StatusInternalServerError, svc.Message(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.CreatePaymentIntentResponse{ClientSecret: secret})
}
