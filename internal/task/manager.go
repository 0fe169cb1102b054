package task

import (
	"context"
	"time"

	"github.com/magnusfroste/notton/internal/service"
	"github.com/magnusfroste/notton/pkg/safe_close"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine is the part of the sync engine driven by periodic tasks
type Engine interface {
	Online() bool
	PendingCount() int
	Drain(ctx context.Context) (service.DrainResult, error)
	Refresh(ctx context.Context) error
}

// Config 周期任务配置，间隔为 0 时禁用对应任务
type Config struct {
	DrainInterval   time.Duration
	RefreshInterval time.Duration
}

// Deps 任务工厂的依赖
type Deps struct {
	Engine Engine
	Config Config
	Logger *zap.Logger
}

// Manager 任务管理器，负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	deps      Deps
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(logger *zap.Logger, sc *safe_close.SafeClose, deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		deps:      deps,
		logger:    logger,
	}
}

// RegisterTasks 注册所有任务
func (m *Manager) RegisterTasks() error {
	var errs error
	for _, factory := range GetFactories() {
		t, err := factory(m.deps)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		if t == nil {
			continue
		}
		if err := m.scheduler.AddTask(t); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		m.logger.Info("task registered", zap.String("name", t.Name()), zap.String("schedule", t.Schedule()))
	}
	return errs
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
