package remote

import (
	"context"
	"time"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type folderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewFolderRepository 创建远端文件夹仓储
func NewFolderRepository(db *gorm.DB) domain.RemoteFolderRepository {
	return &folderRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *folderRepository) List(ctx context.Context, uid string) ([]domain.Folder, error) {
	var rows []*model.Folder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, wrapError("folder.list", err)
	}
	out := make([]domain.Folder, 0, len(rows))
	for _, m := range rows {
		v, err := toDomain[domain.Folder](m)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (r *folderRepository) Create(ctx context.Context, folder *domain.Folder, uid string) (*domain.Folder, error) {
	now := r.now()
	icon := folder.Icon
	if icon == "" {
		icon = domain.DefaultFolderIcon
	}
	m := &model.Folder{
		ID:        uuid.NewString(),
		UserID:    uid,
		Name:      folder.Name,
		Icon:      icon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, wrapError("folder.create", err)
	}
	return toDomain[domain.Folder](m)
}

func (r *folderRepository) Update(ctx context.Context, id string, patch domain.FolderPatch, uid string) (*domain.Folder, error) {
	cols := patch.Columns()
	cols["updated_at"] = r.now()

	db := r.db.WithContext(ctx)
	result := db.Model(&model.Folder{}).
		Where("id = ? AND user_id = ?", id, uid).
		Updates(cols)
	if result.Error != nil {
		return nil, wrapError("folder.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, rejected("folder.update", code.ErrorFolderNotFound.Clone().WithDetails(id))
	}

	var m model.Folder
	if err := db.Where("id = ? AND user_id = ?", id, uid).First(&m).Error; err != nil {
		return nil, wrapError("folder.update", err)
	}
	return toDomain[domain.Folder](&m)
}

// Delete removes the folder and moves its notes out of it in one transaction
func (r *folderRepository) Delete(ctx context.Context, id, uid string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Note{}).
			Where("folder_id = ? AND user_id = ?", id, uid).
			Update("folder_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, uid).Delete(&model.Folder{}).Error
	})
	return wrapError("folder.delete", err)
}
