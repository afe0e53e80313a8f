package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/service"
	"github.com/aperohq/accounts/internal/accounts/store"
	"github.com/aperohq/accounts/pkg/httpx"
	"github.com/aperohq/accounts/pkg/slogx"
)

const (
	minPasswordLength = 8
	maxListLimit      = 200
)

// UsersHandler serves the admin-only /v1/users surface.
type UsersHandler struct {
	UserService *service.UserService
}

type createUserRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`

	IsActive        *bool `json:"is_active"`
	IsEmailVerified bool  `json:"is_email_verified"`

	PhoneNumber string `json:"phone_number"`
	AvatarURL   string `json:"avatar_url"`
}

type updateUserRequest struct {
	Email     *string  `json:"email"`
	Password  *string  `json:"password"`
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Roles     []string `json:"roles"`

	IsActive           *bool `json:"is_active"`
	IsEmailVerified    *bool `json:"is_email_verified"`
	IsTwoFactorEnabled *bool `json:"is_two_factor_enabled"`

	PhoneNumber *string `json:"phone_number"`
	AvatarURL   *string `json:"avatar_url"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Address == strings.TrimSpace(email)
}

func (req *createUserRequest) validate() error {
	if strings.TrimSpace(req.Email) == "" {
		return errors.New("email is required")
	}
	if !validEmail(req.Email) {
		return errors.New("email is not a valid address")
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if _, err := domain.ParseRoles(req.Roles); err != nil {
		return err
	}
	return nil
}

func (req *updateUserRequest) validate() error {
	if req.Email != nil && !validEmail(*req.Email) {
		return errors.New("email is not a valid address")
	}
	if req.Password != nil && *req.Password != "" && len(*req.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if _, err := domain.ParseRoles(req.Roles); err != nil {
		return err
	}
	return nil
}

func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if err := req.validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	roles, _ := domain.ParseRoles(req.Roles)

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user, err := h.UserService.Create(ctx, service.CreateUserInput{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Roles:           roles,
		IsActive:        active,
		IsEmailVerified: req.IsEmailVerified,
		PhoneNumber:     req.PhoneNumber,
		AvatarURL:       req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email_taken", "a user with this email already exists")
			return
		}
		log.Error("user create failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	opts, err := parseListOptions(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	users, err := h.UserService.List(ctx, opts)
	if err != nil {
		log.Error("user list failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, err := h.UserService.Get(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		log.Error("user get failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if err := req.validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	in := service.UpdateUserInput{
		Email:              req.Email,
		Password:           req.Password,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		IsActive:           req.IsActive,
		IsEmailVerified:    req.IsEmailVerified,
		IsTwoFactorEnabled: req.IsTwoFactorEnabled,
		PhoneNumber:        req.PhoneNumber,
		AvatarURL:          req.AvatarURL,
	}
	if len(req.Roles) > 0 {
		roles, _ := domain.ParseRoles(req.Roles)
		in.Roles = roles
	}

	user, err := h.UserService.Update(ctx, r.PathValue("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, "email_taken", "a user with this email already exists")
		default:
			log.Error("user update failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.UserService.Delete(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		log.Error("user delete failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseListOptions(r *http.Request) (store.ListOptions, error) {
	var opts store.ListOptions

	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if opts.Limit == 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}

	return opts, nil
}
