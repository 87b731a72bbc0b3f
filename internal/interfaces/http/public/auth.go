package public

import (
	"net/http"
	"strings"
	"time"

	"github.com/formcollector/api/internal/fault"
	"github.com/formcollector/api/internal/interfaces/http/common"
	"github.com/sirupsen/logrus"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(h.logger, w, r, err)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			common.WriteError(h.logger, w, r, fault.Invalid("email and password are required"))
			return
		}

		if !h.credentials.Verify(req.Email, req.Password) {
			h.logger.WithFields(logrus.Fields{
				"email":  req.Email,
				"remote": common.OriginAddress(r),
			}).Warn("管理者ログインを拒否")
			common.WriteError(h.logger, w, r, fault.New(fault.KindUnauthorized, "Invalid credentials", nil))
			return
		}

		token, expiresAt, err := h.tokens.Issue(h.credentials.Email)
		if err != nil {
			common.WriteError(h.logger, w, r, fault.Internal("failed to issue token", err))
			return
		}

		common.WriteJSON(w, r, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
	}
}

func (h *Handler) verifyTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, r, fault.Internal("authenticated user missing from context", nil))
			return
		}

		common.WriteJSON(w, r, http.StatusOK, map[string]any{
			"isValid": true,
			"user":    map[string]string{"email": user.Email},
			"message": "Token is valid",
		})
	}
}
