package dao

import (
	"fmt"
	"os"
	"strings"

	"github.com/magnusfroste/notton/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite / mysql / postgres
	Type string
	// Path SQLite 数据库文件路径
	Path string
	// DSN 完整连接串，设置后忽略 Host 等字段
	DSN      string
	UserName string
	Password string
	Host     string
	Port     int
	Name     string
	SSLMode  string
	Charset  string
	// TablePrefix 表前缀
	TablePrefix string
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int
	// ConnMaxLifetime 连接最大生命周期，如 30m
	ConnMaxLifetime string
	// ConnMaxIdleTime 空闲连接最大生命周期，如 10m
	ConnMaxIdleTime string
	// Debug 输出 SQL 日志
	Debug bool
}

// NewDBEngine opens a gorm connection for c
// NewDBEngine 根据配置创建数据库连接
func NewDBEngine(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := newDialector(c)
	if err != nil {
		return nil, err
	}

	if lg == nil {
		lg = zap.NewNop()
	}
	level := logger.Silent
	if c.Debug {
		level = logger.Info
	}
	gormLogger := logger.New(zap.NewStdLog(lg.Named("gorm")), logger.Config{
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Type)
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(util.DurationOr(c.ConnMaxLifetime, 0))
	sqlDB.SetConnMaxIdleTime(util.DurationOr(c.ConnMaxIdleTime, 0))

	return db, nil
}

func newDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "sqlite", "":
		if c.Path == "" {
			return nil, errors.New("sqlite path is required")
		}
		if c.Path != ":memory:" && !util.IsExist(c.Path) {
			if err := util.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, errors.Wrap(err, "create sqlite directory")
			}
		}
		return sqlite.Open(sqliteDSN(c.Path)), nil
	case "mysql":
		dsn := c.DSN
		if dsn == "" {
			charset := c.Charset
			if charset == "" {
				charset = "utf8mb4"
			}
			host := c.Host
			if c.Port > 0 {
				host = fmt.Sprintf("%s:%d", c.Host, c.Port)
			}
			dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=Local",
				c.UserName, c.Password, host, c.Name, charset)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := c.DSN
		if dsn == "" {
			port := c.Port
			if port == 0 {
				port = 5432
			}
			sslMode := c.SSLMode
			if sslMode == "" {
				sslMode = "require"
			}
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
				c.Host, c.UserName, c.Password, c.Name, port, sslMode)
		}
		return postgres.Open(dsn), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

// sqliteDSN enables WAL and a busy timeout so readers do not fail while the
// write queue holds the lock
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") || path == ":memory:" {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
