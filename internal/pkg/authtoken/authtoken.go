package authtoken

import (
	"time"

	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errs.New("invalid or expired token")
	ErrEmptySubject = errs.New("token has no subject")
)

const defaultTTL = 24 * time.Hour

// Validator issues and checks the HMAC bearer tokens client applications use
// against the booking API. Subject carries the client identifier echoed into
// request logs.
type Validator struct {
	secret []byte
}

func NewValidator(cfg config.JWTConfig) *Validator {
	return &Validator{secret: []byte(cfg.Secret)}
}

func (v *Validator) Issue(clientID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(defaultTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", errs.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Validate returns the client ID carried in the token's subject.
func (v *Validator) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return "", errs.Mark(err, ErrInvalidToken)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrEmptySubject
	}
	return claims.Subject, nil
}
