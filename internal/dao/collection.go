package dao

import (
	"context"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Collection is one user scoped table of the local cache. Unlike the
// domain.Collection it wraps, every method reports its error.
// Collection 本地缓存中按用户隔离的一张表
type Collection[D any, M any] struct {
	dao      *Dao
	name     string
	order    string
	toModel  func(D, string) (*M, error)
	toDomain func(*M) (D, error)
}

// Name 集合名称
func (c *Collection[D, M]) Name() string { return c.name }

// Put 插入或覆盖一条记录
func (c *Collection[D, M]) Put(ctx context.Context, record D, uid string) error {
	m, err := c.toModel(record, uid)
	if err != nil {
		return err
	}
	return c.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error
	})
}

// GetAll returns every decodable record of uid. Records that fail to
// decode are skipped and reported in the joined error.
// GetAll 读取用户全部记录
func (c *Collection[D, M]) GetAll(ctx context.Context, uid string) ([]D, error) {
	var rows []*M
	err := c.dao.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order(c.order).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", c.name)
	}

	out := make([]D, 0, len(rows))
	var errs error
	for _, row := range rows {
		d, err := c.toDomain(row)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, d)
	}
	return out, errs
}

// Delete 删除一条记录，不存在时不报错
func (c *Collection[D, M]) Delete(ctx context.Context, id, uid string) error {
	return c.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", uid, id).Delete(new(M)).Error
	})
}

// Clear 清空用户的全部记录
func (c *Collection[D, M]) Clear(ctx context.Context, uid string) error {
	return c.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return db.Where("user_id = ?", uid).Delete(new(M)).Error
	})
}

// Replace clears the records of uid and writes records in one transaction
// Replace 在同一事务中清空并重新写入
func (c *Collection[D, M]) Replace(ctx context.Context, records []D, uid string) error {
	rows := make([]*M, 0, len(records))
	for _, r := range records {
		m, err := c.toModel(r, uid)
		if err != nil {
			return err
		}
		rows = append(rows, m)
	}
	return c.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", uid).Delete(new(M)).Error; err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			return tx.CreateInBatches(rows, 100).Error
		})
	})
}

// copyModel 使用 copier 完成领域模型与数据库模型的同名字段转换
// 指针字段共享，调用方需传入副本
func copyModel[To any, From any](from From) (*To, error) {
	to := new(To)
	if err := copier.Copy(to, &from); err != nil {
		return nil, errors.Wrap(err, "copy model")
	}
	return to, nil
}

// NewNoteCollection 笔记缓存集合，按 updated_at 倒序
func NewNoteCollection(d *Dao) *Collection[domain.Note, model.NoteCache] {
	return &Collection[domain.Note, model.NoteCache]{
		dao:   d,
		name:  "notes",
		order: "updated_at desc",
		toModel: func(n domain.Note, uid string) (*model.NoteCache, error) {
			m, err := copyModel[model.NoteCache](n.Clone())
			if err != nil {
				return nil, err
			}
			m.UserID = uid
			return m, nil
		},
		toDomain: func(m *model.NoteCache) (domain.Note, error) {
			n, err := copyModel[domain.Note](*m)
			if err != nil {
				return domain.Note{}, err
			}
			return *n, nil
		},
	}
}

// NewFolderCollection 文件夹缓存集合，按 created_at 正序
func NewFolderCollection(d *Dao) *Collection[domain.Folder, model.FolderCache] {
	return &Collection[domain.Folder, model.FolderCache]{
		dao:   d,
		name:  "folders",
		order: "created_at asc",
		toModel: func(f domain.Folder, uid string) (*model.FolderCache, error) {
			m, err := copyModel[model.FolderCache](f)
			if err != nil {
				return nil, err
			}
			m.UserID = uid
			return m, nil
		},
		toDomain: func(m *model.FolderCache) (domain.Folder, error) {
			f, err := copyModel[domain.Folder](*m)
			if err != nil {
				return domain.Folder{}, err
			}
			return *f, nil
		},
	}
}

// NewPendingCollection 待同步队列，按首次入队时间正序
func NewPendingCollection(d *Dao) *Collection[domain.PendingOperation, model.PendingOperation] {
	return &Collection[domain.PendingOperation, model.PendingOperation]{
		dao:      d,
		name:     "pending",
		order:    "timestamp asc",
		toModel:  pendingToModel,
		toDomain: pendingToDomain,
	}
}
