package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrRefreshExpired    = errors.New("refresh expired")
	ErrRefreshInvalid    = errors.New("refresh invalid")
	ErrTokenParseFailure = errors.New("token parse failure")
)

const (
	DefaultAccessTTL  = time.Minute * 30
	DefaultRefreshTTL = time.Hour * 24

	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer 签发与解析 access / refresh 令牌
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg JWTConfig) *TokenIssuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) AccessTTL() time.Duration {
	return t.accessTTL
}

func (t *TokenIssuer) GeneratePair(userID, role string) (*Pair, error) {
	now := t.now()

	accessToken, err := t.sign(userID, role, subjectAccess, now, t.accessTTL, t.accessSecret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := t.sign(userID, role, subjectRefresh, now, t.refreshTTL, t.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (t *TokenIssuer) sign(userID, role, subject string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	})
	return token.SignedString(secret)
}

// ParseAccess 解析 access
func (t *TokenIssuer) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := t.parse(tokenStr, t.accessSecret)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrTokenParseFailure):
			return nil, err
		default:
			return nil, ErrTokenInvalid
		}
	}
	if claims.Subject != subjectAccess {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefresh 解析 refresh，刷新接口使用
func (t *TokenIssuer) ParseRefresh(tokenStr string) (*Claims, error) {
	claims, err := t.parse(tokenStr, t.refreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrRefreshInvalid
	}
	if claims.Subject != subjectRefresh {
		return nil, ErrRefreshInvalid
	}
	return claims, nil
}

func (t *TokenIssuer) parse(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrTokenParseFailure
	}
	return token.Claims.(*Claims), nil
}
