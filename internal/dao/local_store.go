package dao

import (
	"context"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"
	"github.com/magnusfroste/notton/pkg/logger"
	"github.com/magnusfroste/notton/pkg/writequeue"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// bestEffort adapts a Collection to domain.Collection: failures are
// logged and swallowed so the UI keeps working without a local cache
type bestEffort[D any, M any] struct {
	c      *Collection[D, M]
	logger *zap.Logger
}

func (b bestEffort[D, M]) warn(action, uid string, err error) {
	b.logger.Warn("local store operation failed",
		zap.String(logger.FieldCollection, b.c.name),
		zap.String(logger.FieldAction, action),
		zap.String(logger.FieldUID, uid),
		zap.Error(err))
}

func (b bestEffort[D, M]) Put(ctx context.Context, record D, uid string) {
	if err := b.c.Put(ctx, record, uid); err != nil {
		b.warn("put", uid, err)
	}
}

func (b bestEffort[D, M]) GetAll(ctx context.Context, uid string) []D {
	records, err := b.c.GetAll(ctx, uid)
	if err != nil {
		b.warn("getAll", uid, err)
	}
	if records == nil {
		return []D{}
	}
	return records
}

func (b bestEffort[D, M]) Delete(ctx context.Context, id, uid string) {
	if err := b.c.Delete(ctx, id, uid); err != nil {
		b.warn("delete", uid, err)
	}
}

func (b bestEffort[D, M]) Clear(ctx context.Context, uid string) {
	if err := b.c.Clear(ctx, uid); err != nil {
		b.warn("clear", uid, err)
	}
}

func (b bestEffort[D, M]) Replace(ctx context.Context, records []D, uid string) {
	if err := b.c.Replace(ctx, records, uid); err != nil {
		b.warn("replace", uid, err)
	}
}

// LocalStore SQLite 本地缓存，实现 domain.LocalStore
type LocalStore struct {
	dao     *Dao
	notes   bestEffort[domain.Note, model.NoteCache]
	folders bestEffort[domain.Folder, model.FolderCache]
	pending bestEffort[domain.PendingOperation, model.PendingOperation]
}

var _ domain.LocalStore = (*LocalStore)(nil)

// NewLocalStore 基于已有 Dao 创建本地缓存
func NewLocalStore(d *Dao) *LocalStore {
	lg := d.logger.Named("local-store")
	return &LocalStore{
		dao:     d,
		notes:   bestEffort[domain.Note, model.NoteCache]{c: NewNoteCollection(d), logger: lg},
		folders: bestEffort[domain.Folder, model.FolderCache]{c: NewFolderCollection(d), logger: lg},
		pending: bestEffort[domain.PendingOperation, model.PendingOperation]{c: NewPendingCollection(d), logger: lg},
	}
}

// OpenLocalStore opens the cache database, migrates the cache tables and
// returns the store
// OpenLocalStore 打开本地缓存数据库
func OpenLocalStore(c DatabaseConfig, wq *writequeue.Manager, lg *zap.Logger) (*LocalStore, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	db, err := NewDBEngine(c, lg)
	if err != nil {
		return nil, err
	}
	if err := model.AutoMigrate(db, model.LocalModels()...); err != nil {
		return nil, errors.Wrap(err, "migrate local store")
	}

	opts := []Option{WithLogger(lg)}
	if wq != nil {
		opts = append(opts, WithWriteQueueManager(wq))
	}
	return NewLocalStore(New(db, opts...)), nil
}

func (s *LocalStore) Notes() domain.Collection[domain.Note] { return s.notes }

func (s *LocalStore) Folders() domain.Collection[domain.Folder] { return s.folders }

func (s *LocalStore) Pending() domain.Collection[domain.PendingOperation] { return s.pending }

// Dao 返回底层 Dao
func (s *LocalStore) Dao() *Dao { return s.dao }

// Close 关闭本地缓存数据库
func (s *LocalStore) Close() error {
	return s.dao.Close()
}
