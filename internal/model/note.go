package model

import "time"

const TableNameNote = "notes"

// Note mapped from table <notes>
type Note struct {
	ID        string     `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	UserID    string     `gorm:"column:user_id;type:varchar(64);not null;index:idx_notes_user_updated,priority:1" json:"userId"`
	Title     string     `gorm:"column:title;not null;default:''" json:"title"`
	Content   string     `gorm:"column:content;type:text;not null" json:"content"`
	FolderID  *string    `gorm:"column:folder_id;type:varchar(64);index" json:"folderId"`
	IsDeleted bool       `gorm:"column:is_deleted;not null;default:false" json:"isDeleted"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt"`
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null;index:idx_notes_user_updated,priority:2" json:"updatedAt"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}

const TableNameNoteCache = "note_cache"

// NoteCache mapped from table <note_cache>
// Timestamps are copied from the remote row, never stamped by gorm
type NoteCache struct {
	ID        string     `gorm:"column:id;primaryKey" json:"id"`
	UserID    string     `gorm:"column:user_id;primaryKey" json:"userId"`
	Title     string     `gorm:"column:title" json:"title"`
	Content   string     `gorm:"column:content" json:"content"`
	FolderID  *string    `gorm:"column:folder_id" json:"folderId"`
	IsDeleted bool       `gorm:"column:is_deleted" json:"isDeleted"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
}

// TableName NoteCache's table name
func (*NoteCache) TableName() string {
	return TableNameNoteCache
}
