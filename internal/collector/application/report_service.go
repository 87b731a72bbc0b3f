package application

import (
	"context"

	"github.com/formcollector/api/internal/report"
)

type reportService struct {
	events      EventRepository
	submissions SubmissionRepository
	engine      *report.Engine
}

func NewReportService(events EventRepository, submissions SubmissionRepository, engine *report.Engine) ReportService {
	return &reportService{events: events, submissions: submissions, engine: engine}
}

// Build はイベントと回答を読み込んで集計する。
// イベントが無ければ NotFound、回答が無ければ NoData。
func (s *reportService) Build(ctx context.Context, eventID string) (*report.Report, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissions.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return s.engine.Build(*event, submissions)
}
