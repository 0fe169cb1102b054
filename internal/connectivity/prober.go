package connectivity

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Prober checks whether the remote store can be reached
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc 函数适配器
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// Pinger is implemented by database handles
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingProber probes by pinging the remote database
type PingProber struct {
	Pinger Pinger
}

func (p PingProber) Probe(ctx context.Context) error {
	if p.Pinger == nil {
		return errors.New("no pinger configured")
	}
	return p.Pinger.Ping(ctx)
}

// DialProber probes by opening a TCP connection to Address (host:port)
type DialProber struct {
	Address string
	Timeout time.Duration
}

func (p DialProber) Probe(ctx context.Context) error {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return errors.Wrapf(err, "dial %s", p.Address)
	}
	return conn.Close()
}
