package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/formcollector/api/internal/auth"
	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/config"
	adminhttp "github.com/formcollector/api/internal/interfaces/http/admin"
	commonhttp "github.com/formcollector/api/internal/interfaces/http/common"
	publichttp "github.com/formcollector/api/internal/interfaces/http/public"
	"github.com/formcollector/api/internal/report"
	"github.com/formcollector/api/internal/sweeper"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *logrus.Logger
	backend        Backend
	authorizer     auth.Authorizer
	publicHandler  *publichttp.Handler
	adminHandler   *adminhttp.Handler
	sweeper        *sweeper.Sweeper
	sweepSchedule  string
	location       *time.Location
	addr           string
	allowedOrigins []string
	trustedProxies []netip.Prefix
	now            func() time.Time
}

// Run は期限切れ掃除のスケジューラと HTTP サーバーを起動し、シグナル受信まで待機する。
// ストアの切断は呼び出し側の責務。
func (s *Server) Run() error {
	scheduler, err := s.sweeper.Schedule(s.sweepSchedule, s.location, time.Minute)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"schedule": s.sweepSchedule, "timezone": s.location.String()}).Info("期限切れ掃除をスケジュール")

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP サーバー起動: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	runErr := waitForShutdown(httpServer, errChan, s)
	<-scheduler.Stop().Done()
	return runErr
}

// Routes はミドルウェアと Public/Admin のルーティングを組み立てる。
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(commonhttp.TrustedRealIP(s.trustedProxies))
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Route("/api", func(r chi.Router) {
		s.publicHandler.Register(r, s.authMiddleware)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			s.adminHandler.Register(r)
		})
	})
	return router
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// healthHandler はストアへの疎通確認のみを行う。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.backend.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("ヘルスチェックに失敗")
			commonhttp.WriteJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(w, r, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   s.now().In(s.location).Format(time.RFC3339),
		})
	}
}

// authMiddleware は Authorization ヘッダーを Authorizer で検証し、認証済みオペレーターをコンテキストへ詰める。
// ヘッダーなしは 401、検証失敗は 403。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.authorizer.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"path":   r.URL.Path,
				"remote": commonhttp.OriginAddress(r),
			}).WithError(err).Debug("認証されていないリクエスト")
			commonhttp.WriteError(s.logger, w, r, err)
			return
		}

		ctx := commonhttp.ContextWithUser(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Infof("シグナル %s を受信。サーバー停止処理を開始します。", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.WithError(err).Error("サーバー停止時にエラー")
		}
	}
	return nil
}

// Options はテスト用に依存を差し替える。
type Options struct {
	Now func() time.Time
}

// New は Config と Backend を受け取り、アプリケーションサービスとハンドラを組み立てた Server を返す。
func New(cfg config.Config, backend Backend, opts Options) (*Server, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	policy, err := report.ParseNumericPolicy(cfg.NumericInference)
	if err != nil {
		return nil, err
	}
	var font []byte
	if cfg.ReportFontPath != "" {
		font, err = os.ReadFile(cfg.ReportFontPath)
		if err != nil {
			return nil, fmt.Errorf("レポート用フォントの読み込みに失敗: %w", err)
		}
	}

	credentials, err := auth.NewCredentials(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL).WithClock(now)

	engine := report.NewEngine(loc, policy).WithClock(now)
	eventService := application.NewEventService(backend.Events, backend.Submissions, now)
	submissionService := application.NewSubmissionService(backend.Events, backend.Submissions, application.AdmissionPolicy{
		Quota: cfg.SubmissionQuota,
		Now:   now,
	})
	reportService := application.NewReportService(backend.Events, backend.Submissions, engine)

	srv := &Server{
		logger:         cfg.ServerLog,
		backend:        backend,
		authorizer:     tokens,
		sweepSchedule:  cfg.SweepSchedule,
		location:       loc,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		trustedProxies: append([]netip.Prefix(nil), cfg.TrustedProxies...),
		now:            now,
	}
	srv.publicHandler = publichttp.NewHandler(publichttp.Config{
		Logger:      cfg.ServerLog,
		Events:      eventService,
		Submissions: submissionService,
		Credentials: credentials,
		Tokens:      tokens,
		Now:         now,
	})
	srv.adminHandler = adminhttp.NewHandler(adminhttp.Config{
		Logger:      cfg.ServerLog,
		Events:      eventService,
		Submissions: submissionService,
		Reports:     reportService,
		Encoders:    report.NewEncoders(report.DefaultPageLayout(), font).WithPNGMaxPages(cfg.ReportPNGPages),
		ExportDir:   cfg.ExportDir,
		Now:         now,
	})
	srv.sweeper = sweeper.New(sweeper.Config{
		Events:      backend.Events,
		Submissions: backend.Submissions,
		Grace:       cfg.SweepGrace,
		Logger:      cfg.ServerLog,
		Now:         now,
	})

	return srv, nil
}
