package domain

import "time"

// 系统文件夹 ID，仅为计算视图，从不持久化
const (
	FolderAllID   = "all"
	FolderTrashID = "trash"
)

// DefaultFolderIcon is used when a folder is created without an icon
const DefaultFolderIcon = "folder"

// Folder 文件夹领域模型
type Folder struct {
	ID        string
	UserID    string
	Name      string
	Icon      string
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FolderID returns the id of f, used as the key function of folder collections
func FolderID(f Folder) string { return f.ID }

// Clone 拷贝
func (f Folder) Clone() Folder { return f }

// SystemFolders returns the computed views listed ahead of user folders
func SystemFolders() []Folder {
	return []Folder{
		{ID: FolderAllID, Name: "All Notes", Icon: "notes", IsSystem: true},
		{ID: FolderTrashID, Name: "Recently Deleted", Icon: "trash", IsSystem: true},
	}
}

// IsSystemFolderID 判断是否为系统文件夹 ID
func IsSystemFolderID(id string) bool {
	return id == FolderAllID || id == FolderTrashID
}
