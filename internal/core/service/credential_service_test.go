package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"pgregory.net/rapid"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

func newTestCredentials(t testing.TB, now func() time.Time) *CredentialService {
	t.Helper()
	creds, err := NewCredentialService(CredentialConfig{
		Secret:     "test-secret",
		BcryptCost: bcrypt.MinCost,
		Now:        now,
	}, nil)
	if err != nil {
		t.Fatalf("NewCredentialService: %v", err)
	}
	return creds
}

var sampleClaims = domain.Claims{
	UserID: "65f1c0ffee0000000000abcd",
	Email:  "test@example.com",
	Role:   domain.RoleBuyer,
	Tier:   domain.TierGold,
}

func TestNewCredentialService_RequiresSecret(t *testing.T) {
	if _, err := NewCredentialService(CredentialConfig{}, nil); err != ErrMissingSigningSecret {
		t.Fatalf("expected ErrMissingSigningSecret, got %v", err)
	}
}

func TestCredentialService_DefaultCost(t *testing.T) {
	creds, err := NewCredentialService(CredentialConfig{Secret: "s"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d, got %d", DefaultBcryptCost, creds.cost)
	}
}

func TestCredentialService_HashAndVerify(t *testing.T) {
	creds := newTestCredentials(t, nil)

	hash, err := creds.HashPassword("SecurePass123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "SecurePass123!" {
		t.Fatalf("expected password to be hashed")
	}
	if !creds.VerifyPassword("SecurePass123!", hash) {
		t.Fatalf("expected password to verify")
	}
	if creds.VerifyPassword("securepass123!", hash) {
		t.Fatalf("expected different password to fail")
	}
	if creds.VerifyPassword("SecurePass123!", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestCredentialService_HashAcceptsLongInput(t *testing.T) {
	creds := newTestCredentials(t, nil)
	long := strings.Repeat("a", 200)

	hash, err := creds.HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !creds.VerifyPassword(long, hash) {
		t.Fatalf("expected long password to verify")
	}
}

func TestCredentialService_PasswordRoundTrip(t *testing.T) {
	creds := newTestCredentials(t, nil)

	// Distinct passwords only hash apart within bcrypt's 72-byte input, so
	// both draws are capped at 72 bytes.
	rapid.Check(t, func(t *rapid.T) {
		p1 := rapid.StringN(1, -1, 72).Draw(t, "p1")
		p2 := rapid.StringN(1, -1, 72).Draw(t, "p2")

		hash, err := creds.HashPassword(p1)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		if !creds.VerifyPassword(p1, hash) {
			t.Fatalf("hash of %q does not verify", p1)
		}
		if p1 != p2 && creds.VerifyPassword(p2, hash) {
			t.Fatalf("%q verified against hash of %q", p2, p1)
		}
	})
}

func TestCredentialService_PasswordTruncatedAt72Bytes(t *testing.T) {
	creds := newTestCredentials(t, nil)

	prefix := strings.Repeat("Ab1!", 18)
	hash, err := creds.HashPassword(prefix + "first-suffix")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !creds.VerifyPassword(prefix+"other-suffix", hash) {
		t.Fatalf("bytes past 72 should not affect verification")
	}
	if creds.VerifyPassword(prefix[:71]+"x", hash) {
		t.Fatalf("a difference inside the first 72 bytes must fail verification")
	}
}

func TestCredentialService_AccessTokenRoundTrip(t *testing.T) {
	creds := newTestCredentials(t, nil)

	rapid.Check(t, func(t *rapid.T) {
		in := domain.Claims{
			UserID: rapid.StringMatching(`[a-f0-9]{24}`).Draw(t, "userId"),
			Email:  rapid.StringMatching(`[a-z]{1,10}@[a-z]{1,10}\.[a-z]{2,4}`).Draw(t, "email"),
			Role:   rapid.SampledFrom(domain.Roles).Draw(t, "role"),
			Tier:   rapid.SampledFrom(domain.Tiers).Draw(t, "tier"),
		}

		token, err := creds.GenerateAccessToken(in)
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		out, ok := creds.VerifyToken(token)
		if !ok {
			t.Fatalf("token did not verify")
		}
		if out.UserID != in.UserID || out.Email != in.Email || out.Role != in.Role || out.Tier != in.Tier {
			t.Fatalf("claims mismatch: got %+v want %+v", out, in)
		}
	})
}

func TestCredentialService_AccessTokenExpiry(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	creds := newTestCredentials(t, func() time.Time { return now })

	token, err := creds.GenerateAccessToken(sampleClaims)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	now = issued.Add(24*time.Hour - time.Second)
	claims, ok := creds.VerifyToken(token)
	if !ok {
		t.Fatalf("token should still be valid one second before expiry")
	}
	if !claims.ExpiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}

	now = issued.Add(24*time.Hour + time.Second)
	if _, ok := creds.VerifyToken(token); ok {
		t.Fatalf("expired token must not verify")
	}
}

func TestCredentialService_VerifyToken_Rejects(t *testing.T) {
	creds := newTestCredentials(t, nil)

	if _, ok := creds.VerifyToken("invalid.token.here"); ok {
		t.Fatalf("garbage token must not verify")
	}
	if _, ok := creds.VerifyToken(""); ok {
		t.Fatalf("empty token must not verify")
	}

	other, _ := NewCredentialService(CredentialConfig{Secret: "other-secret"}, nil)
	forged, _ := other.GenerateAccessToken(sampleClaims)
	if _, ok := creds.VerifyToken(forged); ok {
		t.Fatalf("token signed with another secret must not verify")
	}

	foreign, _ := NewCredentialService(CredentialConfig{Secret: "test-secret", Issuer: "someone-else"}, nil)
	wrongIssuer, _ := foreign.GenerateAccessToken(sampleClaims)
	if _, ok := creds.VerifyToken(wrongIssuer); ok {
		t.Fatalf("token from another issuer must not verify")
	}

	refresh, _ := creds.GenerateRefreshToken(sampleClaims.UserID)
	if _, ok := creds.VerifyToken(refresh); ok {
		t.Fatalf("refresh token must not be accepted as access token")
	}

	bad := sampleClaims
	bad.Role = domain.Role("ROOT")
	badRole, _ := creds.GenerateAccessToken(bad)
	if _, ok := creds.VerifyToken(badRole); ok {
		t.Fatalf("token with unknown role must not verify")
	}
}

func TestCredentialService_RejectsOtherAlgorithms(t *testing.T) {
	creds := newTestCredentials(t, nil)

	claims := jwt.MapClaims{
		"userId": sampleClaims.UserID,
		"role":   "ADMIN",
		"tier":   "PLATINUM",
		"typ":    "access",
		"iss":    DefaultIssuer,
		"aud":    DefaultAudience,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, ok := creds.VerifyToken(unsigned); ok {
		t.Fatalf("alg=none token must not verify")
	}
}

func TestCredentialService_RefreshToken(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	creds := newTestCredentials(t, func() time.Time { return now })

	token, err := creds.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	now = issued.Add(6 * 24 * time.Hour)
	if id, ok := creds.VerifyRefreshToken(token); !ok || id != "user-1" {
		t.Fatalf("expected refresh token to verify, got %q %v", id, ok)
	}

	now = issued.Add(7*24*time.Hour + time.Second)
	if _, ok := creds.VerifyRefreshToken(token); ok {
		t.Fatalf("refresh token must expire after 7 days")
	}

	now = issued
	access, _ := creds.GenerateAccessToken(sampleClaims)
	if _, ok := creds.VerifyRefreshToken(access); ok {
		t.Fatalf("access token must not be accepted as refresh token")
	}
}

func TestCredentialService_PolicyDelegates(t *testing.T) {
	creds := newTestCredentials(t, nil)

	if !creds.HasRole(domain.RoleAdmin, []domain.Role{domain.RoleAdmin, domain.RoleAgent}) {
		t.Fatalf("expected ADMIN allowed")
	}
	if creds.HasRole(domain.RoleBuyer, []domain.Role{domain.RoleAdmin, domain.RoleAgent}) {
		t.Fatalf("expected BUYER rejected")
	}
	if !creds.HasTier(domain.TierGold, domain.TierSilver) || creds.HasTier(domain.TierBronze, domain.TierSilver) {
		t.Fatalf("unexpected tier decision")
	}
}

func TestCredentialService_CheckRateLimit(t *testing.T) {
	limiter, _ := newTestLimiter(map[Action]Rule{ActionLogin: {Requests: 1, Window: time.Minute}})
	creds, err := NewCredentialService(CredentialConfig{Secret: "s"}, limiter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !creds.CheckRateLimit(t.Context(), "ip", ActionLogin) {
		t.Fatalf("first attempt should be allowed")
	}
	if creds.CheckRateLimit(t.Context(), "ip", ActionLogin) {
		t.Fatalf("second attempt should be denied")
	}
}
