package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/formcollector/api/internal/interfaces/http/common"
	"github.com/go-chi/chi/v5"
)

type submissionDeleteRequest struct {
	SubmissionIDs []string `json:"submissionIds"`
}

func (h *Handler) submissionListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		subs, err := h.submissions.List(ctx, id)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		items := make([]common.SubmissionResponse, 0, len(subs))
		for _, sub := range subs {
			items = append(items, common.NewSubmissionResponse(sub))
		}
		common.WriteJSON(w, r, http.StatusOK, items)
	}
}

func (h *Handler) submissionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submissionDeleteRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		deleted, err := h.submissions.DeleteMany(ctx, req.SubmissionIDs)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		common.WriteJSON(w, r, http.StatusOK, map[string]any{
			"message":      "Submissions deleted",
			"deletedCount": deleted,
		})
	}
}
