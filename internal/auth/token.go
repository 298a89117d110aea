package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kheyma/kheyma-service/internal/domain"
)

// MinSecretLength is the shortest HMAC key accepted for signing tokens.
const MinSecretLength = 32

// DefaultTokenTTL is used when the configured validity window is not positive.
const DefaultTokenTTL = 24 * time.Hour

// Token verification failures. Verify wraps the underlying parser error in one of these.
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
)

var (
	ErrSecretTooShort = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	ErrEmptySubject   = errors.New("token subject must not be empty")
)

// TokenManager issues and verifies HS256 session tokens. It holds no state
// besides the key and validity window and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// TTL returns the validity window applied at mint time.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes the JWT payload. Only the subject is carried; role and
// enabled state are looked up on every request.
type Claims struct {
	jwt.RegisteredClaims
}

// Mint builds and signs a token for subject, valid from now for the configured TTL.
func (tm *TokenManager) Mint(subject string, now time.Time) (domain.Token, error) {
	if subject == "" {
		return domain.Token{}, ErrEmptySubject
	}

	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(tm.ttl))
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.Token{
		Value:     signed,
		ID:        claims.ID,
		Subject:   subject,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Verify checks structure, then signature, then expiry (exp <= now is
// expired) and returns the token subject.
func (tm *TokenManager) Verify(tokenStr string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	})
	if err != nil {
		return "", classifyParseError(err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims.Subject, nil
}

// The parser reports structural problems before it checks the signature and
// only validates claims of signature-valid tokens, so the order of cases
// mirrors the verification order. Anything unrecognized is malformed.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// TokenFailureKind returns a short label for a Verify error, used in logs and metrics.
func TokenFailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "malformed"
	}
}
