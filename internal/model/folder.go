package model

import "time"

const TableNameFolder = "folders"

// Folder mapped from table <folders>
type Folder struct {
	ID        string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_folders_user_created,priority:1" json:"userId"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Icon      string    `gorm:"column:icon;not null;default:'folder'" json:"icon"`
	IsSystem  bool      `gorm:"column:is_system;not null;default:false" json:"isSystem"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_folders_user_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName Folder's table name
func (*Folder) TableName() string {
	return TableNameFolder
}

const TableNameFolderCache = "folder_cache"

// FolderCache mapped from table <folder_cache>
type FolderCache struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;primaryKey" json:"userId"`
	Name      string    `gorm:"column:name" json:"name"`
	Icon      string    `gorm:"column:icon" json:"icon"`
	IsSystem  bool      `gorm:"column:is_system" json:"isSystem"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
}

// TableName FolderCache's table name
func (*FolderCache) TableName() string {
	return TableNameFolderCache
}
