package task

import (
	"context"
	"time"

	"github.com/magnusfroste/notton/pkg/safe_close"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Schedule() string              // cron 表达式或 "@every 30s"，为空时只在启动时执行
	IsStartupRun() bool            // 是否立即执行一次
}

type scheduled struct {
	task     Task
	schedule cron.Schedule
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []scheduled
	sc     *safe_close.SafeClose
	now    func() time.Time
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]scheduled, 0),
		sc:     sc,
		now:    time.Now,
	}
}

// AddTask 添加任务，调度表达式无效时返回错误
func (s *Scheduler) AddTask(task Task) error {
	st := scheduled{task: task}
	if spec := task.Schedule(); spec != "" {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return errors.Wrapf(err, "task %s: parse schedule %q", task.Name(), spec)
		}
		st.schedule = sched
	}
	s.tasks = append(s.tasks, st)
	return nil
}

// Len 已添加的任务数量
func (s *Scheduler) Len() int { return len(s.tasks) }

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, st := range s.tasks {
		s.startTask(st)
	}
}

// startTask 启动单个任务
func (s *Scheduler) startTask(st scheduled) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-closeSignal:
				cancel()
			case <-ctx.Done():
			}
		}()

		if st.task.IsStartupRun() {
			s.run(ctx, st.task, "startupRun")
		}
		if st.schedule == nil {
			return
		}

		for {
			wait := st.schedule.Next(s.now()).Sub(s.now())
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				s.run(ctx, st.task, "loopRun")
			case <-closeSignal:
				timer.Stop()
				s.logger.Info("task stopped", zap.String("name", st.task.Name()))
				return
			}
		}
	})
}

func (s *Scheduler) run(ctx context.Context, task Task, mode string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.String("mode", mode),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.String("mode", mode),
			zap.Error(err))
		return
	}
	s.logger.Debug("task finished",
		zap.String("name", task.Name()),
		zap.String("mode", mode),
		zap.Duration("duration", time.Since(start)))
}
