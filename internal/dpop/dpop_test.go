package dpop

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenVerifies(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	signed, err := g.Token("POST", "https://api.mercari.jp/v2/entities:search")
	if err != nil {
		t.Fatalf("Token: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(tok *jwt.Token) (interface{}, error) {
		return g.PublicKey(), nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		t.Fatalf("token did not verify: %v", err)
	}

	if typ := parsed.Header["typ"]; typ != "dpop+jwt" {
		t.Errorf("typ header = %v; want dpop+jwt", typ)
	}
	jwk, ok := parsed.Header["jwk"].(map[string]interface{})
	if !ok || jwk["crv"] != "P-256" || jwk["kty"] != "EC" {
		t.Errorf("jwk header = %v", parsed.Header["jwk"])
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["htm"] != "POST" {
		t.Errorf("htm = %v; want POST", claims["htm"])
	}
	if claims["htu"] != "https://api.mercari.jp/v2/entities:search" {
		t.Errorf("htu = %v", claims["htu"])
	}
	if claims["jti"] == "" || claims["uuid"] == "" {
		t.Errorf("missing jti or uuid claim: %v", claims)
	}
}

func TestTokensAreUnique(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	a, _ := g.Token("POST", "https://example.com")
	b, _ := g.Token("POST", "https://example.com")
	if a == b {
		t.Error("two proofs should never be identical")
	}
}
