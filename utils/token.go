package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/svfabworks/factory_backend/config"
)

type JwtCustomClaim struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

const placeholderSecret = "change-me"

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = placeholderSecret
	}
	if len(secret) < 32 {
		log.Printf("JWT_SECRET is shorter than 32 bytes; use a stronger secret")
	}
	if secret == placeholderSecret && strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		log.Fatal("JWT_SECRET is the placeholder value; refusing to start in production")
	}
	return secret
}

func tokenLifespan() time.Duration {
	if v, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN")); err == nil && v > 0 {
		return time.Hour * time.Duration(v)
	}
	return 6 * time.Hour
}

func JwtGenerate(username string, role string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		Username: username,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenLifespan()).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return token, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// BlacklistToken caches the token's hash until its natural expiry so Logout
// takes effect before the TTL runs out.
func BlacklistToken(token string, expiresAt int64) error {
	ttl := time.Until(time.Unix(expiresAt, 0))
	if ttl <= 0 {
		return nil
	}
	return config.SetRedisValue("TokenBlacklist:"+tokenHash(token), "1", ttl)
}

func IsTokenBlacklisted(token string) (bool, error) {
	_, exists, err := config.GetRedisValue("TokenBlacklist:" + tokenHash(token))
	if err != nil {
		return false, err
	}
	return exists, nil
}
