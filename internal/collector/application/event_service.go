package application

import (
	"context"
	"strings"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
)

type eventService struct {
	events      EventRepository
	submissions SubmissionRepository
	now         func() time.Time
}

func NewEventService(events EventRepository, submissions SubmissionRepository, now func() time.Time) EventService {
	if now == nil {
		now = time.Now
	}
	return &eventService{events: events, submissions: submissions, now: now}
}

func (s *eventService) Create(ctx context.Context, cmd CreateEventCommand) (*domain.Event, error) {
	event, err := buildEventFromCommand(cmd)
	if err != nil {
		return nil, err
	}
	event.CreatedAt = s.now().UTC()
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.events.List(ctx)
}

func (s *eventService) Detail(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.FindByID(ctx, id)
}

// Open は回答者向けにイベントを返す。期限切れなら拒否する。
func (s *eventService) Open(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Expired(s.now()) {
		return nil, fault.ErrExpired
	}
	return event, nil
}

// Delete は回答を消してからイベントを消す。
// イベントが既に無くても、取り残された回答を掃除するため回答の削除は行う。
func (s *eventService) Delete(ctx context.Context, id string) error {
	if _, err := s.submissions.DeleteByEvent(ctx, id); err != nil {
		return err
	}
	deleted, err := s.events.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fault.NotFound("event not found")
	}
	return nil
}

func buildEventFromCommand(cmd CreateEventCommand) (*domain.Event, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, fault.Invalid("event name is required")
	}

	fields := make([]domain.Field, 0, len(cmd.Fields))
	for _, fc := range cmd.Fields {
		field, err := domain.NewField(fc.Label, fc.Type, fc.Options)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	if err := domain.ValidateFields(fields); err != nil {
		return nil, err
	}

	expiresAt, err := parseExpiry(cmd.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &domain.Event{
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Fields:      fields,
		ExpiresAt:   expiresAt,
	}, nil
}

// parseExpiry は RFC 3339 かブラウザの datetime-local 形式（UTC とみなす）を受け付ける。
func parseExpiry(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fault.Invalid("expiresAt is required")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fault.Invalidf("expiresAt is not a valid timestamp: %s", value)
}
