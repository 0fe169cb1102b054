// Package dto Defines the output shapes of the command line client
// Package dto 定义命令行客户端的输出结构
package dto

import (
	"time"

	"github.com/magnusfroste/notton/internal/domain"
)

// NoteDTO Note data transfer object
// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content,omitempty"`
	FolderID  *string    `json:"folderId"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	// Pending 尚未同步到远端（临时 ID）
	Pending   bool      `json:"pending"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteListDTO 笔记列表
type NoteListDTO struct {
	Notes   []*NoteDTO `json:"notes"`
	Loading bool       `json:"loading"`
}

// NewNoteDTO converts a note; content is dropped unless withContent
func NewNoteDTO(n domain.Note, withContent bool) *NoteDTO {
	d := &NoteDTO{
		ID:        n.ID,
		Title:     n.Title,
		FolderID:  n.FolderID,
		IsDeleted: n.IsDeleted,
		DeletedAt: n.DeletedAt,
		Pending:   domain.IsTempID(n.ID),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if withContent {
		d.Content = n.Content
	}
	return d
}

// NewNoteDTOs 批量转换
func NewNoteDTOs(notes []domain.Note, withContent bool) []*NoteDTO {
	out := make([]*NoteDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, NewNoteDTO(n, withContent))
	}
	return out
}
