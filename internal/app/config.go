package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/magnusfroste/notton/internal/connectivity"
	"github.com/magnusfroste/notton/internal/dao"
	"github.com/magnusfroste/notton/internal/service"
	"github.com/magnusfroste/notton/internal/task"
	"github.com/magnusfroste/notton/pkg/logger"
	"github.com/magnusfroste/notton/pkg/util"
	"github.com/magnusfroste/notton/pkg/workerpool"
	"github.com/magnusfroste/notton/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// 环境变量覆盖
const (
	EnvRemoteDSN    = "NOTTON_REMOTE_DSN"
	EnvSessionToken = "NOTTON_SESSION_TOKEN"
)

// AppConfig 应用配置
type AppConfig struct {
	File       string           `yaml:"-"`                 // 配置文件路径，不序列化
	Lang       string           `yaml:"lang" default:"en"` // 提示语言 en / zh_cn
	Log        LogConfig        `yaml:"log"`
	Local      LocalConfig      `yaml:"local"`
	Remote     RemoteConfig     `yaml:"remote"`
	Sync       SyncSettings     `yaml:"sync"`
	Session    SessionConfig    `yaml:"session"`
	WorkerPool WorkerPoolConfig `yaml:"worker-pool"`
	WriteQueue WriteQueueConfig `yaml:"write-queue"`
	Server     ServerConfig     `yaml:"server"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时输出到 stderr
	File string `yaml:"file"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production"`
}

// LocalConfig 本地缓存数据库配置（sqlite）
type LocalConfig struct {
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/cache/notton.sqlite3"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"2"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"4"`
}

// RemoteConfig 远端数据库配置
type RemoteConfig struct {
	// Type postgres / mysql / sqlite
	Type string `yaml:"type" default:"postgres"`
	// DSN 完整连接串，设置后忽略 host 等字段
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host" default:"127.0.0.1"`
	Port     int    `yaml:"port"`
	UserName string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" default:"notton"`
	// SSLMode postgres sslmode，默认 require
	SSLMode string `yaml:"ssl-mode"`
	Charset string `yaml:"charset" default:"utf8mb4"`
	// Path 仅 sqlite 使用
	Path        string `yaml:"path"`
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate 是否自动创建远端表
	AutoMigrate     bool   `yaml:"auto-migrate"`
	MaxIdleConns    int    `yaml:"max-idle-conns" default:"5"`
	MaxOpenConns    int    `yaml:"max-open-conns" default:"20"`
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
	// Debug 输出 SQL 日志
	Debug bool `yaml:"debug"`
}

// SyncSettings 同步配置，时长支持 d 后缀
type SyncSettings struct {
	// RemoteTimeout 单次远端调用超时
	RemoteTimeout string `yaml:"remote-timeout" default:"20s"`
	// ProbeInterval 在线时的连通性探测间隔
	ProbeInterval string `yaml:"probe-interval" default:"30s"`
	// ProbeMaxBackoff 离线时探测的最大退避间隔
	ProbeMaxBackoff string `yaml:"probe-max-backoff" default:"5m"`
	// ProbeAddress host:port，为空时通过远端数据库 ping 探测
	ProbeAddress string `yaml:"probe-address"`
	// DrainInterval 周期重放队列的间隔，0 禁用
	DrainInterval string `yaml:"drain-interval" default:"1m"`
	// RefreshInterval 周期刷新的间隔，0 禁用
	RefreshInterval string `yaml:"refresh-interval" default:"5m"`
	// DrainRate 每秒重放的操作数，0 不限速
	DrainRate float64 `yaml:"drain-rate"`
	// DrainNoticeAfter 操作失败多少次后提示一次，0 不提示
	DrainNoticeAfter int `yaml:"drain-notice-after"`
}

// SessionConfig 会话配置；token 优先于 user-id
type SessionConfig struct {
	UserID      string `yaml:"user-id"`
	Email       string `yaml:"email"`
	Token       string `yaml:"token"`
	TokenSecret string `yaml:"token-secret"`
	// TokenExpiry 签发 Token 的有效期
	TokenExpiry string `yaml:"token-expiry" default:"30d"`
}

// WorkerPoolConfig 后台任务池配置
type WorkerPoolConfig struct {
	MaxWorkers int `yaml:"max-workers" default:"4"`
	QueueSize  int `yaml:"queue-size" default:"64"`
}

// WriteQueueConfig 本地缓存写队列配置
type WriteQueueConfig struct {
	Capacity int    `yaml:"capacity" default:"100"`
	Timeout  string `yaml:"timeout" default:"30s"`
	IdleTime string `yaml:"idle-time" default:"10m"`
}

// ServerConfig 私有 HTTP 配置
type ServerConfig struct {
	// RunMode debug 时挂载 pprof
	RunMode string `yaml:"run-mode" default:"release"`
	// PrivateHttpListen 私有 HTTP 监听地址，为空时不监听
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9101"`
}

// DefaultConfig 返回只包含默认值的配置
func DefaultConfig() (*AppConfig, error) {
	c := new(AppConfig)
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}
	return c, nil
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c, err := DefaultConfig()
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0754); err != nil {
		return errors.Wrap(err, "create config directory failed")
	}
	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// ApplyEnv overrides secrets from the environment
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv(EnvRemoteDSN); v != "" {
		c.Remote.DSN = v
	}
	if v := os.Getenv(EnvSessionToken); v != "" {
		c.Session.Token = v
	}
}

// LoggerConfig 获取日志配置
func (c *AppConfig) LoggerConfig() logger.Config {
	return logger.Config{Level: c.Log.Level, File: c.Log.File, Production: c.Log.Production}
}

// LocalDatabase 获取本地缓存数据库配置
func (c *AppConfig) LocalDatabase() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         c.Local.Path,
		MaxIdleConns: c.Local.MaxIdleConns,
		MaxOpenConns: c.Local.MaxOpenConns,
	}
}

// RemoteDatabase 获取远端数据库配置
func (c *AppConfig) RemoteDatabase() dao.DatabaseConfig {
	r := c.Remote
	return dao.DatabaseConfig{
		Type:            r.Type,
		Path:            r.Path,
		DSN:             r.DSN,
		UserName:        r.UserName,
		Password:        r.Password,
		Host:            r.Host,
		Port:            r.Port,
		Name:            r.Name,
		SSLMode:         r.SSLMode,
		Charset:         r.Charset,
		TablePrefix:     r.TablePrefix,
		AutoMigrate:     r.AutoMigrate,
		MaxIdleConns:    r.MaxIdleConns,
		MaxOpenConns:    r.MaxOpenConns,
		ConnMaxLifetime: r.ConnMaxLifetime,
		ConnMaxIdleTime: r.ConnMaxIdleTime,
		Debug:           r.Debug,
	}
}

// SyncEngineConfig 获取同步引擎配置
func (c *AppConfig) SyncEngineConfig() service.SyncConfig {
	return service.SyncConfig{
		RemoteTimeout:    util.DurationOr(c.Sync.RemoteTimeout, 20*time.Second),
		DrainRate:        c.Sync.DrainRate,
		DrainNoticeAfter: c.Sync.DrainNoticeAfter,
	}
}

// ConnectivityConfig 获取连通性监测配置
func (c *AppConfig) ConnectivityConfig() connectivity.Config {
	return connectivity.Config{
		Interval:   util.DurationOr(c.Sync.ProbeInterval, 30*time.Second),
		MaxBackoff: util.DurationOr(c.Sync.ProbeMaxBackoff, 5*time.Minute),
		Timeout:    util.DurationOr(c.Sync.RemoteTimeout, 20*time.Second),
	}
}

// TaskConfig 获取周期任务配置
func (c *AppConfig) TaskConfig() task.Config {
	return task.Config{
		DrainInterval:   util.DurationOr(c.Sync.DrainInterval, time.Minute),
		RefreshInterval: util.DurationOr(c.Sync.RefreshInterval, 5*time.Minute),
	}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()
	if c.WorkerPool.MaxWorkers > 0 {
		cfg.MaxWorkers = c.WorkerPool.MaxWorkers
	}
	if c.WorkerPool.QueueSize > 0 {
		cfg.QueueSize = c.WorkerPool.QueueSize
	}
	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()
	if c.WriteQueue.Capacity > 0 {
		cfg.QueueCapacity = c.WriteQueue.Capacity
	}
	cfg.WriteTimeout = util.DurationOr(c.WriteQueue.Timeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.DurationOr(c.WriteQueue.IdleTime, cfg.IdleTimeout)
	return cfg
}
