package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

const (
	DefaultBcryptCost = 12
	AccessTokenTTL    = 24 * time.Hour
	RefreshTokenTTL   = 7 * 24 * time.Hour

	DefaultIssuer   = "realtyhub"
	DefaultAudience = "realtyhub-users"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// bcrypt only reads the first 72 bytes; longer input is truncated rather
	// than rejected so that hashing succeeds for any string.
	bcryptMaxBytes = 72
)

var ErrMissingSigningSecret = errors.New("credential service: signing secret is required")

// CredentialConfig configures NewCredentialService. Zero values take defaults
// except Secret, which is mandatory.
type CredentialConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	Now        func() time.Time
}

type accessClaims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Tier   domain.Tier `json:"tier"`
	Type   string      `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID string `json:"userId"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// CredentialService hashes passwords, signs and verifies tokens, and exposes
// the input rules and policy predicates under one roof.
type CredentialService struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int
	now        func() time.Time
	limiter    *RateLimiter
	parser     *jwt.Parser
}

// NewCredentialService fails when no signing secret is configured. Rotating
// the secret invalidates every outstanding token.
func NewCredentialService(cfg CredentialConfig, limiter *RateLimiter) (*CredentialService, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningSecret
	}
	s := &CredentialService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		cost:       cfg.BcryptCost,
		now:        cfg.Now,
		limiter:    limiter,
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	if s.audience == "" {
		s.audience = DefaultAudience
	}
	if s.accessTTL <= 0 {
		s.accessTTL = AccessTokenTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = RefreshTokenTTL
	}
	if s.cost == 0 {
		s.cost = DefaultBcryptCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

// HashPassword returns a salted bcrypt hash of plaintext at the configured
// cost.
func (s *CredentialService) HashPassword(plaintext string) (string, error) {
	return HashPassword(plaintext, s.cost)
}

// HashPassword hashes plaintext at cost without a configured service, for
// offline tooling such as seeding administrator accounts.
func HashPassword(plaintext string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches hash. Malformed hashes
// simply do not match.
func (s *CredentialService) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(plaintext)) == nil
}

// GenerateAccessToken signs c for AccessTTL. IssuedAt and ExpiresAt on c are
// ignored; they are set from the service clock.
func (s *CredentialService) GenerateAccessToken(c domain.Claims) (string, error) {
	now := s.now()
	claims := accessClaims{
		UserID:           c.UserID,
		Email:            c.Email,
		Role:             c.Role,
		Tier:             c.Tier,
		Type:             tokenTypeAccess,
		RegisteredClaims: s.registered(c.UserID, now, s.accessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// GenerateRefreshToken signs a userId-only token for RefreshTTL.
func (s *CredentialService) GenerateRefreshToken(userID string) (string, error) {
	now := s.now()
	claims := refreshClaims{
		UserID:           userID,
		Type:             tokenTypeRefresh,
		RegisteredClaims: s.registered(userID, now, s.refreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken validates an access token's signature, issuer, audience and
// expiry. Any failure yields (nil, false) with no reason attached.
func (s *CredentialService) VerifyToken(token string) (*domain.Claims, bool) {
	var claims accessClaims
	if _, err := s.parser.ParseWithClaims(token, &claims, s.keyFunc); err != nil {
		return nil, false
	}
	if claims.Type != tokenTypeAccess || claims.UserID == "" || !claims.Role.Valid() || !claims.Tier.Valid() {
		return nil, false
	}
	out := &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Tier:   claims.Tier,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, true
}

// VerifyRefreshToken returns the userId of a valid refresh token.
func (s *CredentialService) VerifyRefreshToken(token string) (string, bool) {
	var claims refreshClaims
	if _, err := s.parser.ParseWithClaims(token, &claims, s.keyFunc); err != nil {
		return "", false
	}
	if claims.Type != tokenTypeRefresh || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

// AccessTTL is the lifetime of access tokens issued by s.
func (s *CredentialService) AccessTTL() time.Duration { return s.accessTTL }

func (s *CredentialService) ValidateEmail(v string) bool              { return ValidateEmail(v) }
func (s *CredentialService) ValidatePassword(v string) PasswordCheck { return ValidatePassword(v) }
func (s *CredentialService) SanitizeInput(v string) string            { return SanitizeInput(v) }

func (s *CredentialService) HasRole(actual domain.Role, allowed []domain.Role) bool {
	return domain.HasRole(actual, allowed)
}

func (s *CredentialService) HasTier(actual, required domain.Tier) bool {
	return domain.HasTier(actual, required)
}

// CheckRateLimit delegates to the configured RateLimiter. Without one every
// request is allowed.
func (s *CredentialService) CheckRateLimit(ctx context.Context, identifier string, action Action) bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.CheckRateLimit(ctx, identifier, action)
}

func (s *CredentialService) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *CredentialService) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return s.secret, nil
}

// passwordBytes truncates p to the 72 bytes bcrypt reads, so passwords that
// share a 72-byte prefix verify against each other.
func passwordBytes(p string) []byte {
	b := []byte(p)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
