package doordash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// QuoteRequest es el body de POST /drive/v2/quotes. Las direcciones viajan
// tal cual las manda el cliente.
type QuoteRequest struct {
	ExternalDeliveryID string `json:"external_delivery_id"`
	PickupAddress      string `json:"pickup_address"`
	DropoffAddress     string `json:"dropoff_address"`
	DropoffPhoneNumber string `json:"dropoff_phone_number"`
}

// CreateQuote pide una cotización de entrega.
func (c *Client) CreateQuote(ctx context.Context, q QuoteRequest) (json.RawMessage, error) {
	if strings.TrimSpace(q.ExternalDeliveryID) == "" {
		return nil, fmt.Errorf("doordash: external_delivery_id is required")
	}
	return c.Do(ctx, http.MethodPost, "/drive/v2/quotes", q)
}

// AcceptQuote acepta una cotización previa. body es opcional (tip, etc.) y opaco.
func (c *Client) AcceptQuote(ctx context.Context, externalDeliveryID string, body json.RawMessage) (json.RawMessage, error) {
	id := strings.TrimSpace(externalDeliveryID)
	if id == "" {
		return nil, fmt.Errorf("doordash: external_delivery_id is required")
	}
	var payload any
	if len(body) > 0 {
		payload = body
	} else {
		payload = struct{}{}
	}
	return c.Do(ctx, http.MethodPost, "/drive/v2/quotes/"+url.PathEscape(id)+"/accept", payload)
}

// GetDelivery consulta el estado de una entrega.
func (c *Client) GetDelivery(ctx context.Context, externalDeliveryID string) (json.RawMessage, error) {
	id := strings.TrimSpace(externalDeliveryID)
	if id == "" {
		return nil, fmt.Errorf("doordash: external_delivery_id is required")
	}
	return c.Do(ctx, http.MethodGet, "/drive/v2/deliveries/"+url.PathEscape(id), nil)
}
