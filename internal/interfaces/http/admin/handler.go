package admin

import (
	"time"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler は管理者向け HTTP エンドポイントをアプリケーションサービスへつなぐ。
type Handler struct {
	logger      *logrus.Logger
	events      application.EventService
	submissions application.SubmissionService
	reports     application.ReportService
	encoders    *report.Encoders
	exportDir   string
	now         func() time.Time
}

// Config は Handler の依存。
type Config struct {
	Logger      *logrus.Logger
	Events      application.EventService
	Submissions application.SubmissionService
	Reports     application.ReportService
	Encoders    *report.Encoders
	ExportDir   string
	Now         func() time.Time
}

// NewHandler は管理者向けハンドラ群を生成する。
func NewHandler(cfg Config) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		logger:      cfg.Logger,
		events:      cfg.Events,
		submissions: cfg.Submissions,
		reports:     cfg.Reports,
		encoders:    cfg.Encoders,
		exportDir:   cfg.ExportDir,
		now:         now,
	}
}

// Register は管理者向けルートを router に登録する。認証は呼び出し側で掛ける。
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.eventCreateHandler())
	r.Get("/events", h.eventListHandler())
	r.Delete("/events/{id}", h.eventDeleteHandler())
	r.Get("/events/{id}/submissions", h.submissionListHandler())
	r.Delete("/submissions", h.submissionDeleteHandler())
	r.Get("/events/{id}/live-view", h.liveViewHandler())
	r.Get("/events/{id}/download", h.downloadHandler(""))
	r.Get("/events/{id}/download-pdf", h.downloadHandler(report.FormatPDF))
	r.Get("/events/{id}/download-image", h.downloadHandler(report.FormatPNG))
	r.Get("/events/{id}/download-xlsx", h.downloadHandler(report.FormatXLSX))
}
