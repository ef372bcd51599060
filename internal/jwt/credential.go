package jwt

import (
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Credential es un token firmado y sus claims ya decodificadas.
// Nunca se muta: al expirar se emite una nueva.
type Credential struct {
	Token     string
	Issuer    string
	KeyID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// FromToken decodifica (sin verificar firma) un token leído del .env.
// Si no es un JWT decodificable devuelve una credencial opaca: solo Token, sin fechas.
func FromToken(raw string) *Credential {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	claims := jwtv5.MapClaims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(raw, claims); err != nil {
		return &Credential{Token: raw}
	}
	return fromClaims(raw, claims)
}

func fromClaims(raw string, claims jwtv5.MapClaims) *Credential {
	c := &Credential{Token: raw}
	c.Issuer, _ = claims["iss"].(string)
	c.KeyID, _ = claims["kid"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time.UTC()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time.UTC()
	}
	return c
}

// Opaque indica que no conocemos la expiración (valor no-JWT).
func (c *Credential) Opaque() bool {
	return c == nil || c.ExpiresAt.IsZero()
}

// Expired reporta si la credencial ya venció en now. Las opacas nunca "vencen"
// localmente; eso lo decide el proveedor con authentication_error.
func (c *Credential) Expired(now time.Time) bool {
	if c.Opaque() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

// TTL devuelve el tiempo restante (0 si venció u opaca).
func (c *Credential) TTL(now time.Time) time.Duration {
	if c.Opaque() {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
