package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/magnusfroste/notton/internal/service"
	"github.com/magnusfroste/notton/pkg/safe_close"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEngine struct {
	online    atomic.Bool
	pending   atomic.Int32
	drains    atomic.Int32
	refreshes atomic.Int32
	err       error
}

func (f *fakeEngine) Online() bool      { return f.online.Load() }
func (f *fakeEngine) PendingCount() int { return int(f.pending.Load()) }

func (f *fakeEngine) Drain(ctx context.Context) (service.DrainResult, error) {
	f.drains.Add(1)
	return service.DrainResult{Attempted: f.PendingCount()}, f.err
}

func (f *fakeEngine) Refresh(ctx context.Context) error {
	f.refreshes.Add(1)
	return f.err
}

func TestDrainTaskRun(t *testing.T) {
	tests := []struct {
		name    string
		online  bool
		pending int32
		drains  int32
	}{
		{"offline", false, 3, 0},
		{"empty queue", true, 0, 0},
		{"online with work", true, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &fakeEngine{}
			e.online.Store(tt.online)
			e.pending.Store(tt.pending)
			task, err := NewDrainTask(Deps{Engine: e, Config: Config{DrainInterval: time.Minute}, Logger: zap.NewNop()})
			require.NoError(t, err)
			require.NoError(t, task.Run(context.Background()))
			assert.Equal(t, tt.drains, e.drains.Load())
		})
	}
}

func TestRefreshTaskRun(t *testing.T) {
	e := &fakeEngine{err: errors.New("remote down")}
	task, err := NewRefreshTask(Deps{Engine: e, Config: Config{RefreshInterval: 5 * time.Minute}})
	require.NoError(t, err)
	assert.Equal(t, "@every 5m0s", task.Schedule())

	assert.NoError(t, task.Run(context.Background()))
	assert.Zero(t, e.refreshes.Load())

	e.online.Store(true)
	assert.Error(t, task.Run(context.Background()))
	assert.Equal(t, int32(1), e.refreshes.Load())
}

func TestDisabledTasks(t *testing.T) {
	drain, err := NewDrainTask(Deps{})
	require.NoError(t, err)
	assert.Nil(t, drain)
	refresh, err := NewRefreshTask(Deps{})
	require.NoError(t, err)
	assert.Nil(t, refresh)
}

func TestManagerRegistersBuiltinTasks(t *testing.T) {
	sc := safe_close.NewSafeClose()
	m := NewManager(zap.NewNop(), sc, Deps{Engine: &fakeEngine{}, Config: Config{DrainInterval: time.Minute}})
	require.NoError(t, m.RegisterTasks())
	assert.Equal(t, 1, m.scheduler.Len())
}

type funcTask struct {
	name    string
	spec    string
	startup bool
	run     func(ctx context.Context) error
}

func (f funcTask) Name() string                  { return f.name }
func (f funcTask) Schedule() string              { return f.spec }
func (f funcTask) IsStartupRun() bool            { return f.startup }
func (f funcTask) Run(ctx context.Context) error { return f.run(ctx) }

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(zap.NewNop(), safe_close.NewSafeClose())
	err := s.AddTask(funcTask{name: "bad", spec: "every now and then"})
	assert.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestSchedulerRunsAndStops(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	var runs atomic.Int32
	require.NoError(t, s.AddTask(funcTask{
		name: "tick", spec: "@every 1s", startup: true,
		run: func(context.Context) error {
			if runs.Add(1) == 1 {
				panic("first run panics")
			}
			return nil
		},
	}))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func TestSchedulerCancelsRunningTask(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	started := make(chan struct{})
	require.NoError(t, s.AddTask(funcTask{
		name: "blocking", startup: true,
		run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	s.Start()
	<-started
	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}
