package task

import (
	"context"
	"fmt"
)

func init() {
	Register(NewRefreshTask)
}

// RefreshTask 周期性从远端拉取其他设备的修改
type RefreshTask struct {
	engine Engine
	spec   string
}

// NewRefreshTask 创建刷新任务
func NewRefreshTask(deps Deps) (Task, error) {
	if deps.Config.RefreshInterval <= 0 {
		return nil, nil
	}
	return &RefreshTask{
		engine: deps.Engine,
		spec:   fmt.Sprintf("@every %s", deps.Config.RefreshInterval),
	}, nil
}

func (t *RefreshTask) Name() string { return "RemoteRefresh" }

func (t *RefreshTask) Schedule() string { return t.spec }

func (t *RefreshTask) IsStartupRun() bool { return false }

// Run 离线时跳过，避免重复的缓存提示
func (t *RefreshTask) Run(ctx context.Context) error {
	if !t.engine.Online() {
		return nil
	}
	return t.engine.Refresh(ctx)
}
