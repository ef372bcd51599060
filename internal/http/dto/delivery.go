// Package dto contiene los bodies de la superficie HTTP entrante.
package dto

// QuoteRequest es lo que manda la app cliente; el external_delivery_id lo genera el relay.
type QuoteRequest struct {
	PickupAddress      string `json:"pickup_address"`
	DropoffAddress     string `json:"dropoff_address"`
	DropoffPhoneNumber string `json:"dropoff_phone_number"`
}

// ErrorResponse es el contrato {"error": "..."} que consume la app cliente.
type ErrorResponse struct {
	Error string `json:"error"`
}
