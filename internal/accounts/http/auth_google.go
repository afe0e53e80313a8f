package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aperohq/accounts/internal/accounts/service"
	"github.com/aperohq/accounts/pkg/httpx"
	"github.com/aperohq/accounts/pkg/slogx"
)

// GoogleLoginHandler serves POST /v1/auth/google. The client obtains a Google
// ID token through its own OAuth flow and exchanges it here for local tokens.
type GoogleLoginHandler struct {
	GoogleService *service.GoogleService
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (req *googleLoginRequest) validate() error {
	if strings.TrimSpace(req.IDToken) == "" {
		return errors.New("id_token is required")
	}
	return nil
}

func (h *GoogleLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if err := req.validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, pair, err := h.GoogleService.Login(ctx, strings.TrimSpace(req.IDToken))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedIDToken):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed id token")
		case errors.Is(err, service.ErrInvalidGoogleToken):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid Google token")
		default:
			log.Error("google exchange failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		User:      user,
		TokenPair: pair,
		TokenType: "Bearer",
	})
}
