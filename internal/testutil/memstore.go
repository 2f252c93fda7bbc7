// Package testutil 提供内存版存储，供 service 与 handler 测试使用
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

// MemStore 以 map 实现全部存储接口，顺序语义与 mysql 实现一致
type MemStore struct {
	mu            sync.Mutex
	seq           int64
	order         map[string]int64
	users         map[string]model.User
	events        map[string]model.Event
	registrations map[string]model.Registration
	comments      map[string]model.Comment
	ratings       map[string]model.Rating
	feedback      map[string]model.Feedback
	notifications map[string]model.Notification
}

func NewMemStore() *MemStore {
	return &MemStore{
		order:         map[string]int64{},
		users:         map[string]model.User{},
		events:        map[string]model.Event{},
		registrations: map[string]model.Registration{},
		comments:      map[string]model.Comment{},
		ratings:       map[string]model.Rating{},
		feedback:      map[string]model.Feedback{},
		notifications: map[string]model.Notification{},
	}
}

// Stores 按接口拆分
func (m *MemStore) Stores() repository.Stores {
	return repository.Stores{
		Users:         memUsers{m},
		Events:        memEvents{m},
		Registrations: memRegistrations{m},
		Comments:      memComments{m},
		Ratings:       memRatings{m},
		Feedback:      memFeedback{m},
		Notifications: memNotifications{m},
	}
}

func (m *MemStore) touch(id string) {
	if _, ok := m.order[id]; ok {
		return
	}
	m.seq++
	m.order[id] = m.seq
}

// newerFirst 时间倒序，时间相同按写入顺序倒序
func (m *MemStore) newerFirst(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return m.order[idA] > m.order[idB]
}

// ---- users ----

type memUsers struct{ m *MemStore }

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if existing.Email == u.Email {
			return pkg.ErrDuplicate
		}
	}
	if _, ok := s.m.users[u.ID]; ok {
		return pkg.ErrDuplicate
	}
	s.m.touch(u.ID)
	s.m.users[u.ID] = *u
	return nil
}

func (s memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (s memUsers) FindByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := s.m.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (s memUsers) List(_ context.Context, f model.UserFilter) ([]model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.User{}
	for _, u := range s.m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Approved != nil && u.IsApproved != *f.Approved {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.m.newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s memUsers) UpdateProfile(_ context.Context, id, name, college string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return pkg.ErrNotFound
	}
	u.Name = name
	u.College = college
	u.UpdatedAt = time.Now().UTC()
	s.m.users[id] = u
	return nil
}

func (s memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return pkg.ErrNotFound
	}
	u.Password = hash
	s.m.users[id] = u
	return nil
}

func (s memUsers) Approve(_ context.Context, id, by string, at time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok || u.IsApproved {
		return false, nil
	}
	u.IsApproved = true
	u.ApprovedBy = &by
	u.ApprovedAt = &at
	s.m.users[id] = u
	return true, nil
}

func (s memUsers) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(s.m.users, id)
	return nil
}

// ---- events ----

type memEvents struct{ m *MemStore }

func cloneEvent(e model.Event) model.Event {
	e.Registrations = append([]string{}, e.Registrations...)
	return e
}

func (s memEvents) Create(_ context.Context, e *model.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[e.ID]; ok {
		return pkg.ErrDuplicate
	}
	s.m.touch(e.ID)
	s.m.events[e.ID] = cloneEvent(*e)
	return nil
}

func (s memEvents) FindByID(_ context.Context, id string) (*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	e = cloneEvent(e)
	return &e, nil
}

func (s memEvents) FindByIDs(_ context.Context, ids []string) (map[string]*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make(map[string]*model.Event, len(ids))
	for _, id := range ids {
		if e, ok := s.m.events[id]; ok {
			e = cloneEvent(e)
			out[id] = &e
		}
	}
	return out, nil
}

func (s memEvents) List(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Event{}
	for _, e := range s.m.events {
		if f.OwnerID != "" && e.CollegeID != f.OwnerID {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return s.m.order[out[i].ID] < s.m.order[out[j].ID]
	})
	return out, nil
}

func (s memEvents) Update(_ context.Context, e *model.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.events[e.ID]
	if !ok {
		return pkg.ErrNotFound
	}
	// 只写可编辑字段，创建者与报名列表保持库中的值
	cur.Title = e.Title
	cur.Description = e.Description
	cur.Category = e.Category
	cur.Location = e.Location
	cur.StartDate = e.StartDate
	cur.EndDate = e.EndDate
	cur.OnlineLink = e.OnlineLink
	cur.College = e.College
	cur.UpdatedAt = e.UpdatedAt
	s.m.events[e.ID] = cur
	return nil
}

func (s memEvents) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(s.m.events, id)
	return nil
}

func (s memEvents) AddRegistrant(_ context.Context, eventID, studentID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[eventID]
	if !ok {
		return pkg.ErrNotFound
	}
	for _, id := range e.Registrations {
		if id == studentID {
			return nil
		}
	}
	e.Registrations = append(e.Registrations, studentID)
	s.m.events[eventID] = e
	return nil
}

func (s memEvents) RemoveRegistrant(_ context.Context, eventID, studentID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[eventID]
	if !ok {
		return pkg.ErrNotFound
	}
	kept := e.Registrations[:0:0]
	for _, id := range e.Registrations {
		if id != studentID {
			kept = append(kept, id)
		}
	}
	e.Registrations = kept
	s.m.events[eventID] = e
	return nil
}

func (s memEvents) CountByOwner(_ context.Context) ([]model.OwnerEventCount, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	counts := map[string]int64{}
	for _, e := range s.m.events {
		counts[e.CollegeID]++
	}
	out := make([]model.OwnerEventCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.OwnerEventCount{OwnerID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out, nil
}

// ---- registrations ----

type memRegistrations struct{ m *MemStore }

func (s memRegistrations) Create(_ context.Context, r *model.Registration) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.registrations {
		if existing.StudentID == r.StudentID && existing.EventID == r.EventID {
			return pkg.ErrDuplicate
		}
	}
	s.m.touch(r.ID)
	s.m.registrations[r.ID] = *r
	return nil
}

func (s memRegistrations) FindByID(_ context.Context, id string) (*model.Registration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.registrations[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &r, nil
}

func (s memRegistrations) FindByStudentEvent(_ context.Context, studentID, eventID string) (*model.Registration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.registrations {
		if r.StudentID == studentID && r.EventID == eventID {
			return &r, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (s memRegistrations) filter(keep func(model.Registration) bool) []model.Registration {
	out := []model.Registration{}
	for _, r := range s.m.registrations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.m.newerFirst(out[i].RegisteredAt, out[j].RegisteredAt, out[i].ID, out[j].ID)
	})
	return out
}

func (s memRegistrations) ListByStudent(_ context.Context, studentID string) ([]model.Registration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.filter(func(r model.Registration) bool { return r.StudentID == studentID }), nil
}

func (s memRegistrations) ListByEvents(_ context.Context, eventIDs []string, status model.RegistrationStatus) ([]model.Registration, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ids := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = struct{}{}
	}
	return s.filter(func(r model.Registration) bool {
		if _, ok := ids[r.EventID]; !ok {
			return false
		}
		return status == "" || r.Status == status
	}), nil
}

func (s memRegistrations) UpdateStatus(_ context.Context, r *model.Registration, from model.RegistrationStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stored, ok := s.m.registrations[r.ID]
	if !ok {
		return pkg.ErrNotFound
	}
	if stored.Status != from {
		return pkg.ErrConflict
	}
	s.m.registrations[r.ID] = *r
	return nil
}

func (s memRegistrations) DeleteByStudentEvent(_ context.Context, studentID, eventID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, r := range s.m.registrations {
		if r.StudentID == studentID && r.EventID == eventID {
			delete(s.m.registrations, id)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (s memRegistrations) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for id, r := range s.m.registrations {
		if r.EventID == eventID {
			delete(s.m.registrations, id)
			n++
		}
	}
	return n, nil
}

// ---- comments ----

type memComments struct{ m *MemStore }

func (s memComments) Create(_ context.Context, c *model.Comment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stored := *c
	stored.Author = nil
	s.m.touch(c.ID)
	s.m.comments[c.ID] = stored
	return nil
}

func (s memComments) FindByID(_ context.Context, id string) (*model.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.comments[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &c, nil
}

func (s memComments) ListByEvent(_ context.Context, eventID string) ([]model.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Comment{}
	for _, c := range s.m.comments {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return s.m.newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s memComments) SetPinned(_ context.Context, id string, pinned bool, by *string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.comments[id]
	if !ok {
		return pkg.ErrNotFound
	}
	c.IsPinned = pinned
	c.PinnedBy = by
	s.m.comments[id] = c
	return nil
}

// ---- ratings ----

type memRatings struct{ m *MemStore }

func (s memRatings) Upsert(_ context.Context, r *model.Rating) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := time.Now().UTC()
	for id, existing := range s.m.ratings {
		if existing.UserID == r.UserID && existing.EventID == r.EventID {
			existing.Rating = r.Rating
			existing.UpdatedAt = now
			s.m.ratings[id] = existing
			*r = existing
			return nil
		}
	}
	if r.ID == "" {
		r.ID = model.NewID()
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	s.m.touch(r.ID)
	s.m.ratings[r.ID] = *r
	return nil
}

func (s memRatings) ListByEvent(_ context.Context, eventID string) ([]model.Rating, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Rating{}
	for _, r := range s.m.ratings {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.m.newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// ---- feedback ----

type memFeedback struct{ m *MemStore }

func (s memFeedback) Create(_ context.Context, f *model.Feedback) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stored := *f
	stored.Author = nil
	s.m.touch(f.ID)
	s.m.feedback[f.ID] = stored
	return nil
}

func (s memFeedback) List(_ context.Context) ([]model.Feedback, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]model.Feedback, 0, len(s.m.feedback))
	for _, f := range s.m.feedback {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.m.newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// ---- notifications ----

type memNotifications struct{ m *MemStore }

func (s memNotifications) Create(_ context.Context, n *model.Notification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.touch(n.ID)
	s.m.notifications[n.ID] = *n
	return nil
}

func (s memNotifications) ListByRecipient(_ context.Context, recipientID string, limit int) ([]model.Notification, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Notification{}
	for _, n := range s.m.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.m.newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memNotifications) MarkRead(_ context.Context, id, recipientID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n, ok := s.m.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return pkg.ErrNotFound
	}
	n.IsRead = true
	s.m.notifications[id] = n
	return nil
}

func (s memNotifications) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var changed int64
	for id, n := range s.m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			s.m.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}
