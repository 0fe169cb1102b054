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

type noteRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNoteRepository 创建远端笔记仓储
func NewNoteRepository(db *gorm.DB) domain.RemoteNoteRepository {
	return &noteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *noteRepository) List(ctx context.Context, uid string) ([]domain.Note, error) {
	var rows []*model.Note
	err := r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("updated_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, wrapError("note.list", err)
	}
	out := make([]domain.Note, 0, len(rows))
	for _, m := range rows {
		v, err := toDomain[domain.Note](m)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// Create inserts the note under a new id. The remote store stamps
// created_at and updated_at.
func (r *noteRepository) Create(ctx context.Context, note *domain.Note, uid string) (*domain.Note, error) {
	now := r.now()
	m := &model.Note{
		ID:        uuid.NewString(),
		UserID:    uid,
		Title:     note.Title,
		Content:   note.Content,
		FolderID:  note.FolderID,
		IsDeleted: note.IsDeleted,
		DeletedAt: note.DeletedAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if m.IsDeleted && m.DeletedAt == nil {
		m.DeletedAt = &now
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, wrapError("note.create", err)
	}
	return toDomain[domain.Note](m)
}

func (r *noteRepository) Update(ctx context.Context, id string, patch domain.NotePatch, uid string) (*domain.Note, error) {
	cols := patch.Columns()
	if _, ok := cols["updated_at"]; !ok {
		cols["updated_at"] = r.now()
	}

	db := r.db.WithContext(ctx)
	result := db.Model(&model.Note{}).
		Where("id = ? AND user_id = ?", id, uid).
		Updates(cols)
	if result.Error != nil {
		return nil, wrapError("note.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, rejected("note.update", code.ErrorNoteNotFound.Clone().WithDetails(id))
	}

	var m model.Note
	if err := db.Where("id = ? AND user_id = ?", id, uid).First(&m).Error; err != nil {
		return nil, wrapError("note.update", err)
	}
	return toDomain[domain.Note](&m)
}

// Delete removes the row permanently; a missing row is not an error
func (r *noteRepository) Delete(ctx context.Context, id, uid string) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, uid).
		Delete(&model.Note{}).Error
	return wrapError("note.delete", err)
}
