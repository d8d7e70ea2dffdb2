package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A token minted for one purpose is rejected everywhere else,
// so a leaked verification link can never act as an access token.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
	TokenVerify  = "verify"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Tokens mints and validates the HS256 JWTs the API runs on.
type Tokens struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
}

func New(secret, issuer string, accessTTL, refreshTTL, verifyTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		verifyTTL:  verifyTTL,
	}
}

// Issue signs a token of the given purpose for the user.
func (t *Tokens) Issue(userID uint, tokenType string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl(tokenType))),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// IssuePair mints the access+refresh pair returned by login and refresh.
func (t *Tokens) IssuePair(userID uint) (access, refresh string, err error) {
	if access, err = t.Issue(userID, TokenAccess); err != nil {
		return "", "", err
	}
	if refresh, err = t.Issue(userID, TokenRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Parse validates signature, expiry and purpose. Any failure comes back as
// ErrInvalidToken; callers never learn which check tripped.
func (t *Tokens) Parse(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != t.issuer || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *Tokens) ttl(tokenType string) time.Duration {
	switch tokenType {
	case TokenRefresh:
		return t.refreshTTL
	case TokenVerify:
		return t.verifyTTL
	default:
		return t.accessTTL
	}
}
