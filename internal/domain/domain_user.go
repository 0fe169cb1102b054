package domain

import (
	"context"

	"github.com/google/uuid"
)

// User 当前登录用户
type User struct {
	ID    string
	Email string
}

// AuthProvider yields the signed-in user. It returns a nil user and a nil
// error when nobody is signed in.
type AuthProvider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// TempIDPrefix marks ids minted locally for entities the remote store has
// not assigned an id to yet
const TempIDPrefix = "temp-"

// NewTempID 生成临时 ID
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID 判断是否为临时 ID
func IsTempID(id string) bool {
	return len(id) > len(TempIDPrefix) && id[:len(TempIDPrefix)] == TempIDPrefix
}
