package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"campus_hub/internal/metrics"
)

// NamedPublisher 带名字的镜像通道，名字用于日志与指标
type NamedPublisher struct {
	Name      string
	Publisher Publisher
}

// Notifier 异步投递，调用方不等待也拿不到错误
type Notifier struct {
	primary Publisher
	mirrors []NamedPublisher
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewNotifier(primary Publisher, timeout time.Duration, log *zap.Logger, m *metrics.Metrics, mirrors ...NamedPublisher) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Notifier{
		primary: primary,
		mirrors: mirrors,
		timeout: timeout,
		log:     log,
		metrics: m,
	}
}

func (n *Notifier) Notify(identity string, msg Message) {
	if n == nil || identity == "" {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// 脱离请求上下文，请求结束后仍继续投递
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		n.dispatch(ctx, identity, msg)
	}()
}

func (n *Notifier) dispatch(ctx context.Context, identity string, msg Message) {
	if n.primary != nil {
		if err := n.primary.Publish(ctx, identity, msg); err != nil {
			n.fail("primary", identity, msg, err)
		}
	}
	for _, m := range n.mirrors {
		if err := m.Publisher.Publish(ctx, identity, msg); err != nil {
			n.fail(m.Name, identity, msg, err)
		}
	}
}

func (n *Notifier) fail(name, identity string, msg Message, err error) {
	n.metrics.PublishErrors.WithLabelValues(name).Inc()
	n.log.Warn("realtime publish failed",
		zap.String("publisher", name),
		zap.String("identity", identity),
		zap.String("event", msg.Event),
		zap.Error(err))
}

// Wait 等待所有在途投递结束
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
