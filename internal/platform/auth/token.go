package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Role  Role      `json:"role"`
	Type  TokenType `json:"typ"`
}

// Principal is the authenticated caller, also the subject of issued tokens.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies HS256 access and refresh tokens. The two
// token types use different secrets, so one can never be accepted as the
// other.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue returns a fresh access/refresh pair for sub.
func (ti *TokenIssuer) Issue(sub Principal) (TokenPair, error) {
	access, err := ti.sign(sub, TokenAccess, ti.cfg.AccessTTL, ti.cfg.AccessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := ti.sign(sub, TokenRefresh, ti.cfg.RefreshTTL, ti.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (ti *TokenIssuer) sign(sub Principal, typ TokenType, ttl time.Duration, secret []byte) (string, error) {
	now := ti.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: sub.Email,
		Role:  sub.Role,
		Type:  typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (ti *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return ti.parse(token, TokenAccess, ti.cfg.AccessSecret)
}

func (ti *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return ti.parse(token, TokenRefresh, ti.cfg.RefreshSecret)
}

func (ti *TokenIssuer) parse(token string, want TokenType, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, ok := ParseRole(string(claims.Role)); !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
