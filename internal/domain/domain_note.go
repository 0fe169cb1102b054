// Package domain 定义领域模型和接口
package domain

import "time"

// Note 笔记领域模型
type Note struct {
	ID      string
	UserID  string
	Title   string
	Content string
	// FolderID nil 表示不属于任何用户文件夹
	FolderID *string
	// IsDeleted 与 DeletedAt 必须同时设置或同时清空
	IsDeleted bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteID returns the id of n, used as the key function of note collections
func NoteID(n Note) string { return n.ID }

// Clone 深拷贝，避免共享指针字段
func (n Note) Clone() Note {
	c := n
	if n.FolderID != nil {
		id := *n.FolderID
		c.FolderID = &id
	}
	if n.DeletedAt != nil {
		at := *n.DeletedAt
		c.DeletedAt = &at
	}
	return c
}

// InFolder reports whether the note belongs to the user folder id
func (n Note) InFolder(id string) bool {
	return n.FolderID != nil && *n.FolderID == id
}

// NewNote 创建一个未删除、标题和内容为空的新笔记
func NewNote(id, uid string, folderID *string, now time.Time) Note {
	return Note{
		ID:        id,
		UserID:    uid,
		FolderID:  folderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
