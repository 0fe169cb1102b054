// Package auth issues and validates the session tokens that identify the
// signed-in user to the sync core.
// Package auth 签发与校验会话 Token
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DefaultTokenIssuer 默认 Token 签发者
const DefaultTokenIssuer = "notton"

// ErrNoSession is returned by providers when nobody is signed in.
var ErrNoSession = errors.New("no active session")

// Identity is the signed-in user
// Identity 当前登录的用户
type Identity struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// Claims 会话 Token 的载荷
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenConfig 定义 Token 管理器的配置
type TokenConfig struct {
	SecretKey string        // HMAC 签名密钥
	Expiry    time.Duration // Token 过期时间，默认 30 天
	Issuer    string        // Token 签发者
}

// TokenManager signs and parses HS256 session tokens
// TokenManager 签发与解析 HS256 会话 Token
type TokenManager struct {
	config TokenConfig
}

// NewTokenManager 创建 TokenManager
func NewTokenManager(cfg TokenConfig) *TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &TokenManager{config: cfg}
}

// Issue 为用户签发 Token
func (t *TokenManager) Issue(id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := &Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    t.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.config.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

// Parse validates token and returns its identity
// Parse 校验 Token 并返回用户身份
func (t *TokenManager) Parse(token string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.config.SecretKey), nil
	}, jwt.WithIssuer(t.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Wrap(err, "parse session token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Provider yields the current identity
// Provider 提供当前用户身份
type Provider interface {
	Current(ctx context.Context) (*Identity, error)
}

// StaticProvider always returns the same identity. A nil identity means
// nobody is signed in.
type StaticProvider struct {
	Identity *Identity
}

func (p StaticProvider) Current(ctx context.Context) (*Identity, error) {
	if p.Identity == nil {
		return nil, ErrNoSession
	}
	id := *p.Identity
	return &id, nil
}

// TokenProvider resolves the identity from a session token on every call,
// so an expired token signs the user out.
type TokenProvider struct {
	Manager *TokenManager
	Token   func() string
}

func (p TokenProvider) Current(ctx context.Context) (*Identity, error) {
	if p.Token == nil {
		return nil, ErrNoSession
	}
	token := p.Token()
	if token == "" {
		return nil, ErrNoSession
	}
	return p.Manager.Parse(token)
}
