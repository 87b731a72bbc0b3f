package common

import (
	"net/http"

	"github.com/formcollector/api/internal/fault"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// WriteJSON は payload を JSON にして status で返す。
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

// WriteError は err を HTTP ステータスに対応付けて {"error": message} を返す。
// Internal と RenderFailure はリクエスト ID 付きでログに残し、詳細はクライアントへ返さない。
func WriteError(logger *logrus.Logger, w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	status := StatusOf(kind)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithFields(logrus.Fields{
			"request": middleware.GetReqID(r.Context()),
			"method":  r.Method,
			"path":    r.URL.Path,
			"kind":    kind.String(),
		}).WithError(err).Error("リクエスト処理に失敗")
	}
	WriteJSON(w, r, status, map[string]string{"error": fault.MessageOf(err)})
}

// StatusOf は fault の種類に対応する HTTP ステータスを返す。
func StatusOf(kind fault.Kind) int {
	switch kind {
	case fault.KindInvalid:
		return http.StatusBadRequest
	case fault.KindUnauthorized:
		return http.StatusUnauthorized
	case fault.KindInvalidToken:
		return http.StatusForbidden
	case fault.KindNotFound, fault.KindNoData:
		return http.StatusNotFound
	case fault.KindExpired:
		return http.StatusGone
	case fault.KindQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON はサイズ上限付きで JSON ボディを v に読み込む。
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBody)
	if err := render.DecodeJSON(body, v); err != nil {
		return fault.New(fault.KindInvalid, "invalid JSON body", err)
	}
	return nil
}
