package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/service"
	"github.com/aperohq/accounts/pkg/httpx"
	"github.com/aperohq/accounts/pkg/slogx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	domain.TokenPair
	TokenType string `json:"token_type"`
}

func (req *refreshRequest) validate() error {
	if strings.TrimSpace(req.RefreshToken) == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if err := req.validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.AuthService.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "Invalid refresh token")
			return
		}
		log.Error("token refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, refreshResponse{
		TokenPair: pair,
		TokenType: "Bearer",
	})
}
