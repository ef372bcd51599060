package dto

// CreatePaymentIntentRequest: amount en unidades mayores (USD, no centavos).
type CreatePaymentIntentRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}
