package public

import (
	"net/http"
	"time"

	"github.com/formcollector/api/internal/auth"
	"github.com/formcollector/api/internal/collector/application"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler は回答者向けエンドポイントと管理者ログインをアプリケーションサービスへつなぐ。
type Handler struct {
	logger      *logrus.Logger
	events      application.EventService
	submissions application.SubmissionService
	credentials auth.Credentials
	tokens      *auth.Tokens
	now         func() time.Time
}

// Config は Handler の依存。
type Config struct {
	Logger      *logrus.Logger
	Events      application.EventService
	Submissions application.SubmissionService
	Credentials auth.Credentials
	Tokens      *auth.Tokens
	Now         func() time.Time
}

// NewHandler は公開ハンドラ群を生成する。
func NewHandler(cfg Config) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		logger:      cfg.Logger,
		events:      cfg.Events,
		submissions: cfg.Submissions,
		credentials: cfg.Credentials,
		tokens:      cfg.Tokens,
		now:         now,
	}
}

// Register は公開ルートを router に登録する。
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/login", h.loginHandler())
	r.With(authMiddleware).Get("/verify-token", h.verifyTokenHandler())
	r.Get("/events/{id}", h.eventDetailHandler())
	r.Post("/events/{id}/submit", h.submitHandler())
}
