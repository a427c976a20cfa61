package api

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// Authenticator extracts a user identity from an Authorization header.
// It guards the REST boundary only; the relay channel binds identity
// through explicit registration.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Auth validates bearer tokens against a JWKS endpoint. When
// AUTH0_TEST_MODE=1 it instead accepts HMAC tokens signed with
// TEST_JWT_SECRET, which lets integration tests mint their own.
type Auth struct {
	jwks       *keyfunc.JWKS
	audience   string
	issuer     string
	testMode   bool
	testSecret []byte
}

// NewAuth creates an Auth instance.
func NewAuth(jwks *keyfunc.JWKS, audience, issuer string) *Auth {
	a := &Auth{jwks: jwks, audience: audience, issuer: issuer}
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		secret := os.Getenv("TEST_JWT_SECRET")
		if secret == "" {
			panic("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE=1")
		}
		a.testMode = true
		a.testSecret = []byte(secret)
	}
	return a
}

// UserIDFromAuthHeader returns the token subject after verifying the
// signature and the standard claims.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	tokenStr, err := bearerToken(h)
	if err != nil {
		return "", err
	}

	if a.testMode {
		return a.testSubject(tokenStr)
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	token, err := parser.Parse(tokenStr, a.jwks.Keyfunc)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if !claims.VerifyAudience(a.audience, false) {
		return "", errors.New("invalid audience")
	}
	if !claims.VerifyIssuer(a.issuer, false) {
		return "", errors.New("invalid issuer")
	}
	return subject(claims)
}

func (a *Auth) testSubject(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.testSecret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	return subject(claims)
}

func bearerToken(h string) (string, error) {
	if h == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("bad auth header")
	}
	if strings.Count(parts[1], ".") != 2 {
		return "", errors.New("bad auth header")
	}
	return parts[1], nil
}

func subject(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}
