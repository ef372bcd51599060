package dto

import "time"

// HealthResponse es el body de GET /readyz.
type HealthResponse struct {
	Status     string           `json:"status"` // ready | degraded | unavailable
	Credential *CredentialState `json:"credential,omitempty"`
	Scheduler  string           `json:"scheduler,omitempty"` // running | stopped
}

// CredentialState describe la credencial actual. Nunca incluye el token.
type CredentialState struct {
	KeyID     string    `json:"key_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
	Expired   bool      `json:"expired"`
}
