package app

import (
	"context"
	"time"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/auth"
	"github.com/magnusfroste/notton/pkg/util"

	"github.com/pkg/errors"
)

// sessionAuth adapts an auth.Provider to the sync engine
type sessionAuth struct {
	provider auth.Provider
}

func (s sessionAuth) CurrentUser(ctx context.Context) (*domain.User, error) {
	id, err := s.provider.Current(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: id.UserID, Email: id.Email}, nil
}

// NewAuthProvider builds the identity source from the session config: a
// session token when one is set, else the fixed user id, else nobody.
// NewAuthProvider 根据会话配置创建身份提供者
func NewAuthProvider(c SessionConfig) (domain.AuthProvider, error) {
	switch {
	case c.Token != "":
		if c.TokenSecret == "" {
			return nil, errors.New("session.token-secret is required to validate session.token")
		}
		token := c.Token
		return sessionAuth{provider: auth.TokenProvider{
			Manager: tokenManager(c),
			Token:   func() string { return token },
		}}, nil
	case c.UserID != "":
		return sessionAuth{provider: auth.StaticProvider{
			Identity: &auth.Identity{UserID: c.UserID, Email: c.Email},
		}}, nil
	default:
		return sessionAuth{provider: auth.StaticProvider{}}, nil
	}
}

// IssueToken 为用户签发会话 Token
func IssueToken(c SessionConfig, userID, email string) (string, error) {
	if c.TokenSecret == "" {
		return "", errors.New("session.token-secret is not configured")
	}
	return tokenManager(c).Issue(auth.Identity{UserID: userID, Email: email})
}

func tokenManager(c SessionConfig) *auth.TokenManager {
	return auth.NewTokenManager(auth.TokenConfig{
		SecretKey: c.TokenSecret,
		Expiry:    util.DurationOr(c.TokenExpiry, 30*24*time.Hour),
	})
}
