// Package remote 远端关系型存储，按用户隔离的笔记与文件夹表
package remote

import (
	"context"

	"github.com/magnusfroste/notton/internal/dao"
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store 远端存储
type Store struct {
	db      *gorm.DB
	Notes   domain.RemoteNoteRepository
	Folders domain.RemoteFolderRepository
}

// NewStore 基于已有连接创建远端存储
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		Notes:   NewNoteRepository(db),
		Folders: NewFolderRepository(db),
	}
}

// Open connects to the remote database described by c. Tables are created
// when c.AutoMigrate is set.
// Open 连接远端数据库
func Open(c dao.DatabaseConfig, lg *zap.Logger) (*Store, error) {
	db, err := dao.NewDBEngine(c, lg)
	if err != nil {
		return nil, err
	}
	if c.AutoMigrate {
		if err := model.AutoMigrate(db, model.RemoteModels()...); err != nil {
			return nil, errors.Wrap(err, "migrate remote store")
		}
	}
	return NewStore(db), nil
}

// Ping checks that the remote database answers
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrapError("ping", err)
	}
	return wrapError("ping", sqlDB.PingContext(ctx))
}

// Close 关闭连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
