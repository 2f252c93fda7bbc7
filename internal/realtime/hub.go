package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"campus_hub/internal/metrics"
)

const (
	EventNotification        = "notification"
	EventRegistrationChanged = "registrationStatusChanged"
)

// Message 推送给某个身份的一条消息
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// StatusChange registrationStatusChanged 的负载
type StatusChange struct {
	Event   string `json:"event"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Publisher 把消息投递给某个身份，实现可以是本地 Hub 或外部通道
type Publisher interface {
	Publish(ctx context.Context, identity string, msg Message) error
}

type Session struct {
	ID       string
	Identity string
	ch       chan Message
}

func (s *Session) Messages() <-chan Message {
	return s.ch
}

// Hub 身份 -> 会话集合。投递不阻塞，缓冲满直接丢弃
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session
	buffer   int
	metrics  *metrics.Metrics
}

func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Hub{
		sessions: make(map[string]map[string]*Session),
		buffer:   buffer,
		metrics:  m,
	}
}

func (h *Hub) Subscribe(identity string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Identity: identity,
		ch:       make(chan Message, h.buffer),
	}

	h.mu.Lock()
	set, ok := h.sessions[identity]
	if !ok {
		set = make(map[string]*Session)
		h.sessions[identity] = set
	}
	set[s.ID] = s
	h.mu.Unlock()

	h.metrics.RealtimeSessions.Inc()
	return s
}

// Unsubscribe 可重复调用
func (h *Hub) Unsubscribe(s *Session) {
	h.mu.Lock()
	set, ok := h.sessions[s.Identity]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, s.ID)
	if len(set) == 0 {
		delete(h.sessions, s.Identity)
	}
	close(s.ch)
	h.mu.Unlock()

	h.metrics.RealtimeSessions.Dec()
}

// Deliver 返回实际送达的会话数
func (h *Hub) Deliver(identity string, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.sessions[identity]
	if len(set) == 0 {
		h.metrics.RealtimeDropped.WithLabelValues("no_session").Inc()
		return 0
	}

	delivered := 0
	for _, s := range set {
		select {
		case s.ch <- msg:
			delivered++
			h.metrics.RealtimeDelivered.Inc()
		default:
			h.metrics.RealtimeDropped.WithLabelValues("buffer_full").Inc()
		}
	}
	return delivered
}

func (h *Hub) Publish(_ context.Context, identity string, msg Message) error {
	h.Deliver(identity, msg)
	return nil
}

func (h *Hub) Connected(identity string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[identity])
}

// Close 关闭全部会话，进程退出时让 SSE 连接尽快结束
func (h *Hub) Close() {
	h.mu.Lock()
	n := 0
	for identity, set := range h.sessions {
		for _, s := range set {
			close(s.ch)
			n++
		}
		delete(h.sessions, identity)
	}
	h.mu.Unlock()

	h.metrics.RealtimeSessions.Sub(float64(n))
}
