// Package dao 实现本地持久化缓存（数据访问层）
package dao

import (
	"context"

	"github.com/magnusfroste/notton/pkg/writequeue"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dao 封装数据库连接与写队列
type Dao struct {
	db         *gorm.DB
	logger     *zap.Logger
	writeQueue *writequeue.Manager
}

// Option 配置 Dao
type Option func(*Dao)

// WithLogger 设置日志器
func WithLogger(lg *zap.Logger) Option {
	return func(d *Dao) { d.logger = lg }
}

// WithWriteQueueManager 设置写队列，写操作按用户串行化
func WithWriteQueueManager(wq *writequeue.Manager) Option {
	return func(d *Dao) { d.writeQueue = wq }
}

// New 创建 Dao
func New(db *gorm.DB, opts ...Option) *Dao {
	d := &Dao{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB 返回底层连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// ExecuteWrite runs fn through the write queue of uid, or directly when no
// write queue is configured
// ExecuteWrite 通过写队列执行写操作
func (d *Dao) ExecuteWrite(ctx context.Context, uid string, fn func(db *gorm.DB) error) error {
	db := d.db.WithContext(ctx)
	if d.writeQueue == nil {
		return fn(db)
	}
	return d.writeQueue.Execute(ctx, uid, func() error { return fn(db) })
}

// Close 关闭数据库连接
func (d *Dao) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.Close()
}
