package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

var testPrincipal = Principal{UserID: "user-1", Email: "resident@medical.com", Role: RoleResident}

func TestIssue_RoundTrip(t *testing.T) {
	ti := testIssuer()
	pair, err := ti.Issue(testPrincipal)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	access, err := ti.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if access.Subject != "user-1" || access.Role != RoleResident || access.Email != "resident@medical.com" {
		t.Errorf("unexpected access claims: %+v", access)
	}

	refresh, err := ti.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if refresh.ID == "" || refresh.ID == access.ID {
		t.Error("expected distinct non-empty jti values")
	}
	if got := refresh.ExpiresAt.Sub(refresh.IssuedAt.Time); got != 7*24*time.Hour {
		t.Errorf("expected 7d refresh ttl, got %s", got)
	}
}

func TestParse_RejectsSwappedTokenTypes(t *testing.T) {
	ti := testIssuer()
	pair, _ := ti.Issue(testPrincipal)

	if _, err := ti.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Error("refresh token must not pass as access token")
	}
	if _, err := ti.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Error("access token must not pass as refresh token")
	}
}

func TestParse_Expired(t *testing.T) {
	ti := testIssuer()
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, _ := ti.Issue(testPrincipal)
	ti.now = time.Now

	if _, err := ti.ParseAccess(pair.AccessToken); err == nil {
		t.Error("expected expired access token to be rejected")
	}
	if _, err := ti.ParseRefresh(pair.RefreshToken); err != nil {
		t.Errorf("refresh token should still be valid: %v", err)
	}
}

func TestParse_WrongAlgorithm(t *testing.T) {
	ti := testIssuer()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
		Type: TokenAccess,
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret-for-tests"))
	if _, err := ti.ParseAccess(token); err == nil {
		t.Error("expected HS512 token to be rejected")
	}
}

func TestParse_UnknownRole(t *testing.T) {
	ti := testIssuer()
	pair, _ := ti.Issue(Principal{UserID: "u", Role: "superuser"})
	if _, err := ti.ParseAccess(pair.AccessToken); err == nil {
		t.Error("expected token with unknown role to be rejected")
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := testIssuer().ParseAccess("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
