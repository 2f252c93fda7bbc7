package service

import (
	"time"

	"campus_hub/internal/model"
	"campus_hub/internal/realtime"
)

// Actor 已认证的调用者
type Actor struct {
	ID   string
	Role model.Role
}

func (a Actor) Is(role model.Role) bool {
	return a.Role == role
}

// Dispatcher 实时推送出口，realtime.Notifier 实现
type Dispatcher interface {
	Notify(identity string, msg realtime.Message)
}

type nopDispatcher struct{}

func (nopDispatcher) Notify(string, realtime.Message) {}

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
