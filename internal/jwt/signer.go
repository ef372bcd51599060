package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	// Audience es el aud fijo que exige DoorDash Drive.
	Audience = "doordash"
	// VersionHeader / VersionValue identifican el protocolo de firma de DoorDash.
	VersionHeader = "dd-ver"
	VersionValue  = "DD-JWT-V1"
	// CredentialTTL es la vida fija de cada credencial.
	CredentialTTL = 300 * time.Second
)

// ErrInvalidIdentity indica identity material ausente o malformado (fatal al arrancar).
var ErrInvalidIdentity = errors.New("invalid_identity")

// Identity es el material estático con el que se firman las credenciales.
// Se carga una vez al arrancar y no cambia durante la vida del proceso.
type Identity struct {
	DeveloperID   string // "iss"
	KeyID         string // "kid"
	SigningSecret string // base64
}

// Signer firma credenciales HS256 a partir de la Identity.
type Signer struct {
	iss    string
	kid    string
	secret []byte
	now    func() time.Time
}

// NewSigner valida la Identity y decodifica el secreto.
func NewSigner(id Identity) (*Signer, error) {
	iss := strings.TrimSpace(id.DeveloperID)
	kid := strings.TrimSpace(id.KeyID)
	raw := strings.TrimSpace(id.SigningSecret)
	if iss == "" || kid == "" || raw == "" {
		return nil, fmt.Errorf("%w: developer id, key id and signing secret are required", ErrInvalidIdentity)
	}
	secret, err := decodeSecret(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: signing secret: %v", ErrInvalidIdentity, err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret is empty", ErrInvalidIdentity)
	}
	return &Signer{iss: iss, kid: kid, secret: secret, now: time.Now}, nil
}

// decodeSecret acepta base64 estándar o url-safe, con o sin padding.
func decodeSecret(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("not valid base64")
}

// KeyID devuelve el kid con el que firma este Signer.
func (s *Signer) KeyID() string { return s.kid }

// Sign emite una credencial nueva: iat = ahora, exp = iat + 300s.
func (s *Signer) Sign() (*Credential, error) {
	iat := s.now().Unix()
	exp := iat + int64(CredentialTTL/time.Second)

	claims := jwtv5.MapClaims{
		"aud": Audience,
		"iss": s.iss,
		"kid": s.kid,
		"iat": iat,
		"exp": exp,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header[VersionHeader] = VersionValue

	signed, err := tk.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign credential: %w", err)
	}
	return &Credential{
		Token:     signed,
		Issuer:    s.iss,
		KeyID:     s.kid,
		IssuedAt:  time.Unix(iat, 0).UTC(),
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}, nil
}

// Verify valida la firma de un token emitido por este Signer sin chequear exp.
// Lo usa relayctl inspect para distinguir tokens propios de valores ajenos.
func (s *Signer) Verify(token string) (*Credential, error) {
	tok, err := jwtv5.Parse(token, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithoutClaimsValidation(),
	)
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid_jwt")
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims_type")
	}
	return fromClaims(token, claims), nil
}
