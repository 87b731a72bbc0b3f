package common

import (
	"time"

	"github.com/formcollector/api/internal/collector/domain"
)

// EventResponse はイベントのレスポンス形式。ID は "id" と、既存ダッシュボードが使う "_id" の両方で返す。
type EventResponse struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fields      []FieldResponse `json:"fields"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	Expired     bool            `json:"expired"`
}

type FieldResponse struct {
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

// SubmissionResponse は保存済み回答のレスポンス形式。
type SubmissionResponse struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"_id"`
	EventID    string         `json:"eventId"`
	Data       map[string]any `json:"data"`
	IPAddress  string         `json:"ipAddress"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func NewEventResponse(ev domain.Event, now time.Time) EventResponse {
	fields := make([]FieldResponse, 0, len(ev.Fields))
	for _, f := range ev.Fields {
		fields = append(fields, FieldResponse{Label: f.Label, Type: string(f.Type), Options: f.Options})
	}
	return EventResponse{
		ID:          ev.ID,
		DocumentID:  ev.ID,
		Name:        ev.Name,
		Description: ev.Description,
		Fields:      fields,
		ExpiresAt:   ev.ExpiresAt,
		CreatedAt:   ev.CreatedAt,
		Expired:     ev.Expired(now),
	}
}

func NewSubmissionResponse(sub domain.Submission) SubmissionResponse {
	data := make(map[string]any, len(sub.Data))
	for label, value := range sub.Data {
		data[label] = value.Raw()
	}
	return SubmissionResponse{
		ID:         sub.ID,
		DocumentID: sub.ID,
		EventID:    sub.EventID,
		Data:       data,
		IPAddress:  sub.OriginAddress,
		CreatedAt:  sub.CreatedAt,
	}
}
