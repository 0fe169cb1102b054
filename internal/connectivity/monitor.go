// Package connectivity tracks whether the remote store is reachable and
// notifies subscribers on every online/offline transition.
// Package connectivity 网络连通性监测
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/magnusfroste/notton/pkg/logger"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// Event 连通性变化事件
type Event struct {
	Online bool
	At     time.Time
}

// Config 监测配置
type Config struct {
	// Interval 在线时的探测间隔，默认 30 秒
	Interval time.Duration
	// MinBackoff 离线后首次重试间隔，默认 1 秒
	MinBackoff time.Duration
	// MaxBackoff 离线时的最大重试间隔，默认 5 分钟
	MaxBackoff time.Duration
	// Timeout 单次探测超时，默认 5 秒
	Timeout time.Duration
	// InitialOnline 首次探测前假定的状态
	InitialOnline bool
}

func (c *Config) setDefaults() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	if c.MaxBackoff < c.MinBackoff {
		c.MaxBackoff = c.MinBackoff
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

const subscriberBuffer = 16

// Monitor 连通性监测器
type Monitor struct {
	cfg    Config
	prober Prober
	logger *zap.Logger

	online atomic.Bool

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int

	kick   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a monitor. A nil prober disables probing; state then only
// changes through Set.
func New(cfg Config, prober Prober, lg *zap.Logger) *Monitor {
	cfg.setDefaults()
	if lg == nil {
		lg = zap.NewNop()
	}
	m := &Monitor{
		cfg:    cfg,
		prober: prober,
		logger: lg,
		subs:   make(map[int]chan Event),
		kick:   make(chan struct{}, 1),
	}
	m.online.Store(cfg.InitialOnline)
	return m
}

// Online 当前是否在线
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Set records the state and notifies subscribers when it changed
func (m *Monitor) Set(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	m.logger.Info("connectivity changed", zap.Bool(logger.FieldOnline, online))
	m.broadcast(Event{Online: online, At: time.Now()})
}

func (m *Monitor) broadcast(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			// 订阅者过慢，丢弃最旧的事件
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Subscribe returns a channel of transitions and a function that ends the
// subscription and closes the channel
// Subscribe 订阅连通性变化
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Event, subscriberBuffer)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

// ReportFailure asks the probe loop to check the remote store right away
func (m *Monitor) ReportFailure(err error) {
	m.logger.Debug("remote failure reported", zap.Error(err))
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Check probes once and records the result
func (m *Monitor) Check(ctx context.Context) bool {
	if m.prober == nil {
		return m.Online()
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	err := m.prober.Probe(ctx)
	if err != nil {
		m.logger.Debug("probe failed", zap.Error(err))
	}
	m.Set(err == nil)
	return err == nil
}

// Start runs the probe loop until ctx is cancelled or Stop is called
func (m *Monitor) Start(ctx context.Context) {
	if m.prober == nil || m.done != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	b := &backoff.Backoff{
		Min:    m.cfg.MinBackoff,
		Max:    m.cfg.MaxBackoff,
		Factor: 2,
		Jitter: true,
	}
	for {
		var wait time.Duration
		if m.Check(ctx) {
			b.Reset()
			wait = m.cfg.Interval
		} else {
			wait = b.Duration()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.kick:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Stop 停止探测
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}
