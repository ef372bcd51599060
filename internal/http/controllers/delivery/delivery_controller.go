// Package delivery expone los endpoints de entregas que se relayan a DoorDash Drive.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/dashpay-relay/internal/doordash"
	httperrors "github.com/dropDatabas3/dashpay-relay/internal/http/errors"
	"github.com/dropDatabas3/dashpay-relay/internal/http/dto"
	"github.com/dropDatabas3/dashpay-relay/internal/http/helpers"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// Relay es la porción de doordash.Client que usa el controller.
type Relay interface {
	CreateQuote(ctx context.Context, q doordash.QuoteRequest) (json.RawMessage, error)
	AcceptQuote(ctx context.Context, externalDeliveryID string, body json.RawMessage) (json.RawMessage, error)
	GetDelivery(ctx context.Context, externalDeliveryID string) (json.RawMessage, error)
}

const (
	msgQuoteFailed  = "Failed to get delivery quote"
	msgAcceptFailed = "Failed to accept delivery quote"
	msgGetFailed    = "Failed to get delivery"
)

// Controller maneja /delivery/*.
type Controller struct {
	relay Relay
	now   func() time.Time
}

// NewController crea el controller.
func NewController(relay Relay) *Controller {
	return &Controller{relay: relay, now: time.Now}
}

// Quote maneja POST /delivery/quote.
func (c *Controller) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("DeliveryController.Quote"))

	var req dto.QuoteRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	var missing []string
	if strings.TrimSpace(req.PickupAddress) == "" {
		missing = append(missing, "pickup_address")
	}
	if strings.TrimSpace(req.DropoffAddress) == "" {
		missing = append(missing, "dropoff_address")
	}
	if strings.TrimSpace(req.DropoffPhoneNumber) == "" {
		missing = append(missing, "dropoff_phone_number")
	}
	if len(missing) > 0 {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail(strings.Join(missing, ", ")))
		return
	}

	q := doordash.QuoteRequest{
		ExternalDeliveryID: fmt.Sprintf("delivery_%d", c.now().UnixMilli()),
		PickupAddress:      req.PickupAddress,
		DropoffAddress:     req.DropoffAddress,
		DropoffPhoneNumber: req.DropoffPhoneNumber,
	}
	out, err := c.relay.CreateQuote(ctx, q)
	if err != nil {
		log.Error("delivery quote failed", logger.ID(q.ExternalDeliveryID), logger.Err(err))
		helpers.WriteErrorJSON(w, http.StatusInternalServerError, msgQuoteFailed)
		return
	}
	helpers.WriteRawJSON(w, http.StatusOK, out)
}

// Accept maneja POST /delivery/{id}/accept. El body (opcional) pasa tal cual.
func (c *Controller) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("DeliveryController.Accept"))
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithCause(err))
		return
	}
	var payload json.RawMessage
	if len(strings.TrimSpace(string(body))) > 0 {
		if !json.Valid(body) {
			httperrors.WriteError(w, httperrors.ErrInvalidJSON)
			return
		}
		payload = body
	}

	out, err := c.relay.AcceptQuote(ctx, id, payload)
	if err != nil {
		log.Error("accept quote failed", logger.ID(id), logger.Err(err))
		helpers.WriteErrorJSON(w, http.StatusInternalServerError, msgAcceptFailed)
		return
	}
	helpers.WriteRawJSON(w, http.StatusOK, out)
}

// Get maneja GET /delivery/{id}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	out, err := c.relay.GetDelivery(ctx, id)
	if err != nil {
		logger.From(ctx).Error("get delivery failed", logger.Op("DeliveryController.Get"), logger.ID(id), logger.Err(err))
		helpers.WriteErrorJSON(w, http.StatusInternalServerError, msgGetFailed)
		return
	}
	helpers.WriteRawJSON(w, http.StatusOK, out)
}
