package dto

import (
	"time"

	"github.com/magnusfroste/notton/internal/domain"
)

// FolderDTO 文件夹数据传输对象
type FolderDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	IsSystem  bool      `json:"isSystem"`
	Pending   bool      `json:"pending"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// FolderListDTO 文件夹列表
type FolderListDTO struct {
	Folders []*FolderDTO `json:"folders"`
	Loading bool         `json:"loading"`
}

func NewFolderDTO(f domain.Folder) *FolderDTO {
	return &FolderDTO{
		ID:        f.ID,
		Name:      f.Name,
		Icon:      f.Icon,
		IsSystem:  f.IsSystem,
		Pending:   domain.IsTempID(f.ID),
		CreatedAt: f.CreatedAt,
	}
}

func NewFolderDTOs(folders []domain.Folder) []*FolderDTO {
	out := make([]*FolderDTO, 0, len(folders))
	for _, f := range folders {
		out = append(out, NewFolderDTO(f))
	}
	return out
}
