// Package dpop signs DPoP proof tokens (RFC 9449) for APIs that require a
// proof-of-possession header on every request.
package dpop

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Generator holds one P-256 key pair and a stable device id.
// Tokens are signed with ES256 and carry the public key as a JWK header.
type Generator struct {
	key      *ecdsa.PrivateKey
	jwk      map[string]string
	deviceID string
	now      func() time.Time
}

// NewGenerator creates a generator with a freshly generated key.
func NewGenerator() (*Generator, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("dpop: generate key: %w", err)
	}
	return NewGeneratorWithKey(key, uuid.NewString())
}

// NewGeneratorWithKey creates a generator from an existing key and device id.
func NewGeneratorWithKey(key *ecdsa.PrivateKey, deviceID string) (*Generator, error) {
	pub, err := key.PublicKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("dpop: public key: %w", err)
	}
	// Uncompressed point: 0x04 || X || Y.
	raw := pub.Bytes()
	if len(raw) != 65 {
		return nil, fmt.Errorf("dpop: unexpected public key length %d", len(raw))
	}
	enc := base64.RawURLEncoding
	return &Generator{
		key: key,
		jwk: map[string]string{
			"crv": "P-256",
			"kty": "EC",
			"x":   enc.EncodeToString(raw[1:33]),
			"y":   enc.EncodeToString(raw[33:]),
		},
		deviceID: deviceID,
		now:      time.Now,
	}, nil
}

// PublicKey returns the verification key.
func (g *Generator) PublicKey() *ecdsa.PublicKey {
	return &g.key.PublicKey
}

// Token returns a signed proof bound to the HTTP method and URL.
func (g *Generator) Token(method, url string) (string, error) {
	claims := jwt.MapClaims{
		"iat":  g.now().Unix(),
		"jti":  uuid.NewString(),
		"htu":  url,
		"htm":  method,
		"uuid": g.deviceID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["typ"] = "dpop+jwt"
	token.Header["jwk"] = g.jwk

	signed, err := token.SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("dpop: sign token: %w", err)
	}
	return signed, nil
}
