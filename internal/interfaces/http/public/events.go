package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/interfaces/http/common"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// eventDetailHandler は回答者向けにフォーム定義を返す。期限切れは 410。
func (h *Handler) eventDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		event, err := h.events.Open(ctx, id)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		common.WriteJSON(w, r, http.StatusOK, common.NewEventResponse(*event, h.now()))
	}
}

// submitHandler は回答を受け付ける。送信元アドレスは TrustedRealIP 適用後の RemoteAddr。
func (h *Handler) submitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var answers map[string]any
		if err := common.DecodeJSON(w, r, &answers); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		origin := common.OriginAddress(r)
		submission, err := h.submissions.Submit(ctx, application.SubmitCommand{
			EventID:       id,
			OriginAddress: origin,
			Answers:       answers,
		})
		if err != nil {
			h.logger.WithFields(logrus.Fields{"event": id, "origin": origin}).WithError(err).Debug("回答を拒否")
			common.WriteError(h.logger, w, r, err)
			return
		}

		common.WriteJSON(w, r, http.StatusCreated, common.NewSubmissionResponse(*submission))
	}
}
