package auth

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/listenup-reader/internal/id"
)

const (
	tokenIssuer   = "listenup-reader"
	tokenAudience = "listenup-reader-client"
)

// ErrTokenExpired reports a token that was valid but whose lifetime has passed.
var ErrTokenExpired = errors.New("token expired")

// TokenService handles PASETO token generation and verification.
type TokenService struct {
	symmetricKey        paseto.V4SymmetricKey
	accessTokenDuration time.Duration
}

// NewTokenService creates a token service from a raw 32-byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if accessDuration <= 0 {
		return nil, errors.New("access token duration must be positive")
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:        symmetricKey,
		accessTokenDuration: accessDuration,
	}, nil
}

// GenerateAccessToken creates a PASETO v4.local access token whose subject is the reader ID.
func (s *TokenService) GenerateAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(userID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.accessTokenDuration))

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", userID)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyAccessToken verifies and parses a PASETO access token.
// Returns the claims if valid, ErrTokenExpired once the token's lifetime has
// passed, or another error if it is invalid.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.Subject == "" || claims.Subject != claims.UserID {
		return nil, errors.New("invalid token: subject does not identify a reader")
	}

	now := time.Now()
	if claims.Expiration.IsZero() {
		return nil, errors.New("invalid token: missing expiration")
	}
	if !now.Before(claims.Expiration) {
		return nil, ErrTokenExpired
	}
	if claims.IssuedAt.After(now) || claims.NotBefore.After(now) {
		return nil, errors.New("invalid token: not yet valid")
	}

	return &claims, nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTokenDuration
}
