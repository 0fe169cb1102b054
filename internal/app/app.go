// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"sync"

	"github.com/magnusfroste/notton/internal/connectivity"
	"github.com/magnusfroste/notton/internal/dao"
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/metrics"
	"github.com/magnusfroste/notton/internal/remote"
	"github.com/magnusfroste/notton/internal/service"
	"github.com/magnusfroste/notton/internal/task"
	pkgapp "github.com/magnusfroste/notton/pkg/app"
	"github.com/magnusfroste/notton/pkg/code"
	"github.com/magnusfroste/notton/pkg/logger"
	"github.com/magnusfroste/notton/pkg/safe_close"
	"github.com/magnusfroste/notton/pkg/util"
	"github.com/magnusfroste/notton/pkg/workerpool"
	"github.com/magnusfroste/notton/pkg/writequeue"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	config   *AppConfig
	logger   *zap.Logger
	deviceID string

	// 基础设施
	local    *dao.LocalStore
	remote   *remote.Store
	monitor  *connectivity.Monitor
	registry *prometheus.Registry

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager
	sc            *safe_close.SafeClose
	tasks         *task.Manager

	// Service 层
	Engine        *service.SyncEngine
	NoteService   service.NoteService
	FolderService service.FolderService

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	notifier service.Notifier
	auth     domain.AuthProvider
	registry *prometheus.Registry
	prober   connectivity.Prober
	remote   *remote.Store
}

// Option 自定义 App 的依赖
type Option func(*options)

// WithNotifier installs the receiver of user facing notices
func WithNotifier(n service.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithAuthProvider replaces the session config based identity
func WithAuthProvider(p domain.AuthProvider) Option {
	return func(o *options) { o.auth = p }
}

// WithRegistry registers the metrics on r instead of a private registry
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithProber replaces the connectivity probe
func WithProber(p connectivity.Prober) Option {
	return func(o *options) { o.prober = p }
}

// WithRemoteStore uses an already opened remote store
func WithRemoteStore(s *remote.Store) Option {
	return func(o *options) { o.remote = s }
}

// Open 创建应用容器实例
// 初始化所有依赖并进行依赖注入，不启动后台任务
func Open(cfg *AppConfig, lg *zap.Logger, opts ...Option) (a *App, err error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if lg == nil {
		return nil, errors.New("logger is required")
	}
	if err := code.SetGlobalDefaultLang(cfg.Lang); err != nil {
		lg.Warn("unsupported lang, using default", zap.String("lang", cfg.Lang), zap.Error(err))
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a = &App{
		config:   cfg,
		logger:   lg,
		deviceID: util.GetDeviceID(DeviceAppID),
		sc:       safe_close.NewSafeClose(),
	}
	defer func() {
		if err != nil {
			a.closeResources(context.Background())
		}
	}()

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, lg.Named("workerpool"))

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, lg.Named("writequeue"))

	a.local, err = dao.OpenLocalStore(cfg.LocalDatabase(), a.writeQueueMgr, lg.Named("local"))
	if err != nil {
		return nil, errors.Wrap(err, "open local store")
	}

	a.remote = o.remote
	if a.remote == nil {
		a.remote, err = remote.Open(cfg.RemoteDatabase(), lg.Named("remote"))
		if err != nil {
			return nil, errors.Wrap(err, "open remote store")
		}
	}

	authProvider := o.auth
	if authProvider == nil {
		authProvider, err = NewAuthProvider(cfg.Session)
		if err != nil {
			return nil, err
		}
	}

	a.registry = o.registry
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	collector := metrics.New(a.registry)

	prober := o.prober
	if prober == nil {
		if addr := cfg.Sync.ProbeAddress; addr != "" {
			prober = connectivity.DialProber{Address: addr, Timeout: cfg.ConnectivityConfig().Timeout}
		} else {
			prober = connectivity.PingProber{Pinger: a.remote}
		}
	}
	a.monitor = connectivity.New(cfg.ConnectivityConfig(), prober, lg.Named("connectivity"))

	a.Engine, err = service.NewSyncEngine(service.Dependencies{
		Auth:      authProvider,
		Local:     a.local,
		Notes:     a.remote.Notes,
		Folders:   a.remote.Folders,
		Monitor:   a.monitor,
		Notifier:  o.notifier,
		Submitter: a.workerPool,
		Metrics:   collector,
		Logger:    lg.Named("sync"),
	}, cfg.SyncEngineConfig())
	if err != nil {
		return nil, err
	}
	a.NoteService = service.NewNoteService(a.Engine)
	a.FolderService = service.NewFolderService(a.Engine)

	a.tasks = task.NewManager(lg.Named("task"), a.sc, task.Deps{
		Engine: a.Engine,
		Config: cfg.TaskConfig(),
		Logger: lg.Named("task"),
	})

	lg.Info("App container initialized successfully",
		zap.String(logger.FieldDeviceID, a.deviceID),
		zap.String("remoteType", cfg.Remote.Type),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))
	return a, nil
}

// Start probes connectivity once, then starts the probe loop, the sync
// engine and, when withTasks is set, the periodic tasks
func (a *App) Start(ctx context.Context, withTasks bool) error {
	a.monitor.Check(ctx)
	a.monitor.Start(context.Background())
	if err := a.Engine.Start(ctx); err != nil {
		return err
	}
	if !withTasks {
		return nil
	}
	if err := a.tasks.RegisterTasks(); err != nil {
		return err
	}
	a.tasks.Start()
	return nil
}

// Close 优雅关闭应用容器
// 按顺序关闭：周期任务 -> 同步引擎 -> 连通性监测 -> Worker Pool -> Write Queue -> 数据库
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.logger.Info("App container shutting down...")
		a.closeErr = a.closeResources(ctx)
		if a.closeErr != nil {
			a.logger.Warn("App container shutdown completed with errors", zap.Error(a.closeErr))
			return
		}
		a.logger.Info("App container shutdown completed successfully")
	})
	return a.closeErr
}

func (a *App) closeResources(ctx context.Context) error {
	var errs error

	a.sc.SendCloseSignal(nil)
	errs = multierr.Append(errs, a.sc.WaitClosed())

	if a.Engine != nil {
		a.Engine.Stop()
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.workerPool != nil {
		if err := a.workerPool.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "worker pool shutdown"))
		}
	}
	if a.writeQueueMgr != nil {
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "write queue manager shutdown"))
		}
	}
	if a.local != nil {
		errs = multierr.Append(errs, a.local.Close())
	}
	if a.remote != nil {
		errs = multierr.Append(errs, a.remote.Close())
	}
	return errs
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Registry 获取 prometheus 注册表
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Monitor 获取连通性监测器
func (a *App) Monitor() *connectivity.Monitor {
	return a.monitor
}

// DeviceID 当前设备标识，平台不支持时为空
func (a *App) DeviceID() string {
	return a.deviceID
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}
