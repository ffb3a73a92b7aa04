package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestJwtGenerateValidateRoundTrip(t *testing.T) {
	token, err := JwtGenerate("operator1", "USER")
	if err != nil {
		t.Fatalf("JwtGenerate error: %v", err)
	}

	validated, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate error: %v", err)
	}
	if !validated.Valid {
		t.Fatal("expected a valid token")
	}
	claims, ok := validated.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", validated.Claims)
	}
	if claims.Username != "operator1" || claims.Role != "USER" {
		t.Fatalf("claims round-trip mismatch: %+v", claims)
	}
	if claims.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("token expires in the past: %d", claims.ExpiresAt)
	}
}

func TestJwtValidate_RejectsForeignSecret(t *testing.T) {
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		Username: "operator1",
		Role:     "ADMIN",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	token, err := forged.SignedString([]byte("some-other-secret-entirely-here!"))
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	validated, err := JwtValidate(token)
	if err == nil && validated.Valid {
		t.Fatal("expected validation to fail for a foreign signing key")
	}
}

func TestJwtValidate_RejectsGarbage(t *testing.T) {
	if validated, err := JwtValidate("not.a.token"); err == nil && validated.Valid {
		t.Fatal("expected validation to fail for malformed input")
	}
}
