// Package memory はイベントと回答をプロセスのメモリ上に保持する。
// STORE_BACKEND=memory とサービス層のテストで使う。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
	"github.com/google/uuid"
)

// Store は 2 つのコレクションを 1 つの mutex で守る。
type Store struct {
	mu          sync.RWMutex
	events      map[string]domain.Event
	submissions []domain.Submission
}

func NewStore() *Store {
	return &Store{events: make(map[string]domain.Event)}
}

// Events はイベントのリポジトリとしてストアを返す。
func (s *Store) Events() *EventRepository { return &EventRepository{store: s} }

// Submissions は回答のリポジトリとしてストアを返す。
func (s *Store) Submissions() *SubmissionRepository { return &SubmissionRepository{store: s} }

// Ping は常に成功する。
func (s *Store) Ping(context.Context) error { return nil }

type EventRepository struct {
	store *Store
}

func (r *EventRepository) Create(_ context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	r.store.events[event.ID] = cloneEvent(*event)
	return nil
}

// List はイベントを新しい順に返す。
func (r *EventRepository) List(context.Context) ([]domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]domain.Event, 0, len(r.store.events))
	for _, ev := range r.store.events {
		events = append(events, cloneEvent(ev))
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (r *EventRepository) FindByID(_ context.Context, id string) (*domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ev, ok := r.store.events[id]
	if !ok {
		return nil, fault.NotFound("event not found")
	}
	ev = cloneEvent(ev)
	return &ev, nil
}

func (r *EventRepository) Delete(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.events[id]; !ok {
		return false, nil
	}
	delete(r.store.events, id)
	return true, nil
}

// FindExpiredBefore は expiresAt が cutoff 以前のイベントを返す。
func (r *EventRepository) FindExpiredBefore(_ context.Context, cutoff time.Time) ([]domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]domain.Event, 0)
	for _, ev := range r.store.events {
		if !ev.ExpiresAt.After(cutoff) {
			events = append(events, cloneEvent(ev))
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ExpiresAt.Before(events[j].ExpiresAt) })
	return events, nil
}

type SubmissionRepository struct {
	store *Store
}

func (r *SubmissionRepository) Create(_ context.Context, submission *domain.Submission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	r.store.submissions = append(r.store.submissions, cloneSubmission(*submission))
	return nil
}

// ListByEvent は回答を createdAt 昇順で返す。同時刻は登録順。
func (r *SubmissionRepository) ListByEvent(_ context.Context, eventID string) ([]domain.Submission, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	subs := make([]domain.Submission, 0)
	for _, sub := range r.store.submissions {
		if sub.EventID == eventID {
			subs = append(subs, cloneSubmission(sub))
		}
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (r *SubmissionRepository) CountByOrigin(_ context.Context, eventID, origin string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, sub := range r.store.submissions {
		if sub.EventID == eventID && sub.OriginAddress == origin {
			n++
		}
	}
	return n, nil
}

func (r *SubmissionRepository) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	return r.deleteWhere(func(sub domain.Submission) bool { return sub.EventID == eventID }), nil
}

func (r *SubmissionRepository) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return r.deleteWhere(func(sub domain.Submission) bool {
		_, ok := wanted[sub.ID]
		return ok
	}), nil
}

func (r *SubmissionRepository) deleteWhere(match func(domain.Submission) bool) int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.submissions[:0]
	var removed int64
	for _, sub := range r.store.submissions {
		if match(sub) {
			removed++
			continue
		}
		kept = append(kept, sub)
	}
	r.store.submissions = kept
	return removed
}

func cloneEvent(ev domain.Event) domain.Event {
	fields := make([]domain.Field, len(ev.Fields))
	for i, f := range ev.Fields {
		if f.Options != nil {
			f.Options = append([]string(nil), f.Options...)
		}
		fields[i] = f
	}
	ev.Fields = fields
	return ev
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	data := make(map[string]domain.Value, len(sub.Data))
	for k, v := range sub.Data {
		data[k] = v
	}
	sub.Data = data
	return sub
}
