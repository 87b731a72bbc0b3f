package application

import (
	"context"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/report"
)

// EventRepository はイベントを永続化する。FindByID は存在しないイベントを fault.ErrNotFound で返す。
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	List(ctx context.Context) ([]domain.Event, error)
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]domain.Event, error)
}

// SubmissionRepository は回答を永続化する。ListByEvent は受付順に返す。
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Submission, error)
	CountByOrigin(ctx context.Context, eventID, origin string) (int64, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// EventService は管理者と回答者向けのイベントのユースケース。
type EventService interface {
	Create(ctx context.Context, cmd CreateEventCommand) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Detail(ctx context.Context, id string) (*domain.Event, error)
	Open(ctx context.Context, id string) (*domain.Event, error)
	Delete(ctx context.Context, id string) error
}

// SubmissionService は回答のユースケース。
type SubmissionService interface {
	Submit(ctx context.Context, cmd SubmitCommand) (*domain.Submission, error)
	List(ctx context.Context, eventID string) ([]domain.Submission, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// ReportService はエクスポート用の集計レポートを作る。
type ReportService interface {
	Build(ctx context.Context, eventID string) (*report.Report, error)
}

// CreateEventCommand はイベント作成の入力。
type CreateEventCommand struct {
	Name        string
	Description string
	Fields      []FieldCommand
	ExpiresAt   string
}

// FieldCommand は未検証の項目定義。
type FieldCommand struct {
	Label   string
	Type    string
	Options []string
}

// SubmitCommand は匿名の回答。
type SubmitCommand struct {
	EventID       string
	OriginAddress string
	Answers       map[string]any
}

// AdmissionPolicy は回答受付の制限設定。Quota が 0 以下なら送信元ごとの上限を設けない。
type AdmissionPolicy struct {
	Quota int
	Now   func() time.Time
}

func (p AdmissionPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}
