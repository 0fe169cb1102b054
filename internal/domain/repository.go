// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"errors"
)

// RemoteNoteRepository 远端笔记仓储接口，所有操作都按 uid 限定行
type RemoteNoteRepository interface {
	// List 返回用户的全部笔记，按 updated_at 倒序
	List(ctx context.Context, uid string) ([]Note, error)

	// Create 创建笔记，远端分配 ID 与时间戳
	Create(ctx context.Context, note *Note, uid string) (*Note, error)

	// Update 部分更新笔记
	Update(ctx context.Context, id string, patch NotePatch, uid string) (*Note, error)

	// Delete 永久删除笔记，删除不存在的笔记视为成功
	Delete(ctx context.Context, id, uid string) error
}

// RemoteFolderRepository 远端文件夹仓储接口
type RemoteFolderRepository interface {
	// List 返回用户的全部文件夹，按 created_at 正序
	List(ctx context.Context, uid string) ([]Folder, error)

	// Create 创建文件夹，远端分配 ID 与时间戳
	Create(ctx context.Context, folder *Folder, uid string) (*Folder, error)

	// Update 部分更新文件夹
	Update(ctx context.Context, id string, patch FolderPatch, uid string) (*Folder, error)

	// Delete 删除文件夹，并在同一事务中清空其笔记的 folder_id
	Delete(ctx context.Context, id, uid string) error
}

// Collection is one best-effort collection of the local durable store.
// Failures are logged by the implementation and never returned; GetAll
// returns an empty slice when the store is unavailable.
type Collection[T any] interface {
	Put(ctx context.Context, record T, uid string)
	GetAll(ctx context.Context, uid string) []T
	Delete(ctx context.Context, id, uid string)
	Clear(ctx context.Context, uid string)
	// Replace clears the collection and repopulates it with records
	Replace(ctx context.Context, records []T, uid string)
}

// LocalStore 本地持久化缓存
type LocalStore interface {
	Notes() Collection[Note]
	Folders() Collection[Folder]
	Pending() Collection[PendingOperation]
}

// RemoteError is returned by remote repositories. Unreachable separates
// connectivity failures from rejections by the remote store.
type RemoteError struct {
	Op          string
	Unreachable bool
	Err         error
}

func (e *RemoteError) Error() string {
	kind := "rejected"
	if e.Unreachable {
		kind = "unreachable"
	}
	return e.Op + ": remote " + kind + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsUnreachable reports whether err is a connectivity failure
func IsUnreachable(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Unreachable
}
