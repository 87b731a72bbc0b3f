package admin

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/formcollector/api/internal/interfaces/http/common"
	"github.com/formcollector/api/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) liveViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.ExportTimeout)
		defer cancel()

		rep, err := h.reports.Build(ctx, strings.TrimSpace(chi.URLParam(r, "id")))
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		common.WriteJSON(w, r, http.StatusOK, report.NewLiveView(rep))
	}
}

// downloadHandler はレポートを一時ファイルに書き出してから配信する。
// fixed が空なら ?format= で形式を選ぶ（既定は CSV）。
func (h *Handler) downloadHandler(fixed report.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := fixed
		if format == "" {
			parsed, err := report.ParseFormat(r.URL.Query().Get("format"))
			if err != nil {
				common.WriteError(h.logger, w, r, err)
				return
			}
			format = parsed
		}
		enc, err := h.encoders.For(format)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.ExportTimeout)
		defer cancel()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		rep, err := h.reports.Build(ctx, id)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		filename := fmt.Sprintf("submissions_%s.%s", id, enc.Extension())
		served := false
		err = report.Spool(h.exportDir, enc, rep, func(f *os.File, size int64) error {
			w.Header().Set("Content-Type", enc.ContentType())
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
			http.ServeContent(w, r, filename, rep.GeneratedAt, f)
			served = true
			h.logger.WithFields(logrus.Fields{
				"event":  id,
				"format": string(format),
				"rows":   len(rep.Rows),
				"bytes":  size,
			}).Info("レポートを出力")
			return nil
		})
		switch {
		case err == nil:
		case served:
			h.logger.WithField("event", id).WithError(err).Warn("出力ファイルの後始末に失敗")
		default:
			common.WriteError(h.logger, w, r, err)
		}
	}
}
