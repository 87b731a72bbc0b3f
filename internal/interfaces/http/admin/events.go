package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/interfaces/http/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type fieldRequest struct {
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

type eventCreateRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Fields      []fieldRequest `json:"fields"`
	ExpiresAt   string         `json:"expiresAt"`
}

func (req eventCreateRequest) command() application.CreateEventCommand {
	fields := make([]application.FieldCommand, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, application.FieldCommand{Label: f.Label, Type: f.Type, Options: f.Options})
	}
	return application.CreateEventCommand{
		Name:        req.Name,
		Description: req.Description,
		Fields:      fields,
		ExpiresAt:   req.ExpiresAt,
	}
}

func (h *Handler) eventCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventCreateRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		event, err := h.events.Create(ctx, req.command())
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		h.logger.WithFields(logrus.Fields{"event": event.ID, "fields": len(event.Fields)}).Info("イベントを作成")
		common.WriteJSON(w, r, http.StatusCreated, common.NewEventResponse(*event, h.now()))
	}
}

func (h *Handler) eventListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		events, err := h.events.List(ctx)
		if err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		now := h.now()
		items := make([]common.EventResponse, 0, len(events))
		for _, ev := range events {
			items = append(items, common.NewEventResponse(ev, now))
		}
		common.WriteJSON(w, r, http.StatusOK, items)
	}
}

// eventDeleteHandler は回答を先に削除してからイベントを削除する。
func (h *Handler) eventDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if err := h.events.Delete(ctx, id); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}

		h.logger.WithField("event", id).Info("イベントを削除")
		render.Status(r, http.StatusOK)
		render.PlainText(w, r, "Deleted")
	}
}
