package testutil

import (
	"context"
	"sync"
	"time"

	"campus_hub/internal/model"
	"campus_hub/internal/realtime"
	"campus_hub/internal/repository/redis"
)

// Tokens 内存版登录会话
type Tokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewTokens() *Tokens {
	return &Tokens{tokens: map[string]string{}}
}

func (t *Tokens) AddUserToken(_ context.Context, userID, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[userID] = token
	return nil
}

func (t *Tokens) GetUserToken(_ context.Context, userID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.tokens[userID]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return tok, nil
}

func (t *Tokens) ExtendUserToken(_ context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tokens[userID]; !ok {
		return redis.ErrTokenNotFound
	}
	return nil
}

func (t *Tokens) DeleteUserToken(_ context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, userID)
	return nil
}

// SummaryCache 内存版评分缓存，记录命中与删除次数
type SummaryCache struct {
	mu      sync.Mutex
	entries map[string]model.RatingSummary
	Hits    int
	Deletes int
}

func NewSummaryCache() *SummaryCache {
	return &SummaryCache{entries: map[string]model.RatingSummary{}}
}

func (c *SummaryCache) GetSummary(_ context.Context, eventID string) (*model.RatingSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[eventID]
	if !ok {
		return nil, false, nil
	}
	c.Hits++
	return &s, true, nil
}

func (c *SummaryCache) SetSummary(_ context.Context, eventID string, s *model.RatingSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[eventID] = *s
	return nil
}

func (c *SummaryCache) DeleteSummary(_ context.Context, eventID string, _ ...time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, eventID)
	c.Deletes++
	return nil
}

// Locker 单进程互斥锁
type Locker struct {
	mu    sync.Mutex
	held  map[string]string
	Block bool
}

func NewLocker() *Locker {
	return &Locker{held: map[string]string{}}
}

func (l *Locker) Acquire(_ context.Context, key, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Block {
		return false, nil
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = token
	return true, nil
}

func (l *Locker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// Limiter 固定放行前 Limit 次
type Limiter struct {
	mu    sync.Mutex
	Limit int
	hits  map[string]int
}

func NewLimiter(limit int) *Limiter {
	return &Limiter{Limit: limit, hits: map[string]int{}}
}

func (l *Limiter) Allow(_ context.Context, scope, subject string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := scope + ":" + subject
	l.hits[key]++
	return l.Limit <= 0 || l.hits[key] <= l.Limit, nil
}

// Sent 一条被分发的实时消息
type Sent struct {
	Identity string
	Msg      realtime.Message
}

// Dispatcher 同步记录推送，替代 realtime.Notifier
type Dispatcher struct {
	mu   sync.Mutex
	sent []Sent
}

func (d *Dispatcher) Notify(identity string, msg realtime.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, Sent{Identity: identity, Msg: msg})
}

func (d *Dispatcher) Sent() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Sent(nil), d.sent...)
}
