package task

import (
	"context"
	"fmt"

	"github.com/magnusfroste/notton/pkg/logger"

	"go.uber.org/zap"
)

func init() {
	Register(NewDrainTask)
}

// DrainTask 周期性重放待同步队列，补上错过的联网事件
type DrainTask struct {
	engine Engine
	spec   string
	logger *zap.Logger
}

// NewDrainTask 创建队列重放任务
func NewDrainTask(deps Deps) (Task, error) {
	if deps.Config.DrainInterval <= 0 {
		return nil, nil
	}
	return &DrainTask{
		engine: deps.Engine,
		spec:   fmt.Sprintf("@every %s", deps.Config.DrainInterval),
		logger: deps.Logger,
	}, nil
}

func (t *DrainTask) Name() string { return "PendingDrain" }

func (t *DrainTask) Schedule() string { return t.spec }

// IsStartupRun 引擎启动时已重放过一次
func (t *DrainTask) IsStartupRun() bool { return false }

// Run 在线且队列非空时重放
func (t *DrainTask) Run(ctx context.Context) error {
	if !t.engine.Online() || t.engine.PendingCount() == 0 {
		return nil
	}
	res, err := t.engine.Drain(ctx)
	if err != nil {
		return err
	}
	if !res.Skipped {
		t.logger.Debug("task log",
			zap.String("task", t.Name()),
			zap.Int("attempted", res.Attempted),
			zap.Int("failed", res.Failed),
			zap.Int(logger.FieldCount, t.engine.PendingCount()))
	}
	return nil
}
