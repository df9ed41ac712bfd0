package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed with another key.
var ErrInvalidToken = errors.New("invalid token")

const purposeEmailVerification = "email_verification"

// VerificationClaims holds JWT claims for an email verification token.
type VerificationClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// VerificationTokens issues and validates HS256 email verification tokens. The subject is the user id.
type VerificationTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewVerificationTokens returns a VerificationTokens signing with secret. ttl is the token lifetime.
func NewVerificationTokens(secret, issuer string, ttl time.Duration) *VerificationTokens {
	return &VerificationTokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID and its expiry.
func (v *VerificationTokens) Issue(userID string) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := v.now().UTC()
	expiresAt := now.Add(v.ttl)
	claims := VerificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Purpose: purposeEmailVerification,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate checks signature, expiry, issuer, and purpose, and returns the user id.
func (v *VerificationTokens) Validate(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &VerificationClaims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*VerificationClaims)
	if !ok || !parsed.Valid || claims.Purpose != purposeEmailVerification || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
