package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Sign-in failures are reported with HTTP 200 and one of these codes.
const (
	CodeUsernameNotFound  = "USERNAME_DOES_NOT_EXIST"
	CodePasswordIncorrect = "PASSWORD_IS_INCORRECT"
)

// HandlerConfig tunes optional handler behaviour.
type HandlerConfig struct {
	// SignInLimit caps sign-in attempts per IP per minute; zero disables it.
	SignInLimit int
	// ClearTokenSecret guards the clear-tokens endpoint; empty disables it.
	ClearTokenSecret string
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *Gate
	cookies   *CookieTransport
	validator *validator.Validate
	cfg       HandlerConfig
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *Gate, cookies *CookieTransport, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		cookies:   cookies,
		validator: validator.New(),
		cfg:       cfg,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.cfg.SignInLimit > 0 {
			r.Use(httprate.LimitByIP(h.cfg.SignInLimit, time.Minute))
		}
		r.Post("/sign-in", h.handleSignIn)
	})
	r.With(h.gate.RequireRefresh).Post("/refresh-token", h.handleRefresh)
	r.With(h.gate.Require).Post("/sign-out", h.handleSignOut)
	r.With(h.gate.Require).Get("/me", h.handleMe)
	r.Post("/clear-tokens", h.handleClearTokens)
}

type signInRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type signInResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    SignInProfile `json:"user"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.SignIn(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrUsernameNotFound):
		httpx.Fail(w, http.StatusOK, "Username is not exist!", CodeUsernameNotFound)
		return
	case errors.Is(err, ErrPasswordIncorrect):
		httpx.Fail(w, http.StatusOK, "Password is incorrect!", CodePasswordIncorrect)
		return
	case err != nil:
		h.logger.Error("sign in", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.attachTokens(w, result.Tokens)
	httpx.JSON(w, http.StatusOK, signInResponse{Success: true, Message: "Login successful", User: result.Profile})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	tokens, err := h.service.Refresh(r.Context(), p)
	if err != nil {
		h.logger.Error("refresh token", slog.Any("error", err))
		httpx.Fail(w, http.StatusUnauthorized, "Invalid refresh token", CodeInvalidToken)
		return
	}
	h.attachTokens(w, tokens)
	httpx.OK(w, http.StatusOK, "Token refreshed successfully", nil)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.SignOut(r.Context(), p); err != nil {
		h.logger.Warn("sign out bookkeeping", slog.Int64("user_id", p.UserID), slog.Any("error", err))
	}
	h.cookies.ClearPair(w)
	httpx.OK(w, http.StatusOK, "Logout successful", nil)
}

type meResponse struct {
	User  *Profile   `json:"user"`
	Menus []MenuItem `json:"menus"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	profile, menus, err := h.service.Profile(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
			return
		}
		h.logger.Error("load profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", meResponse{User: profile, Menus: menus})
}

func (h *Handler) handleClearTokens(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Clear-Token-Secret")
	if h.cfg.ClearTokenSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.ClearTokenSecret)) != 1 {
		httpx.Fail(w, http.StatusForbidden, "Unauthorized", "FORBIDDEN")
		return
	}
	h.cookies.ClearPair(w)
	httpx.OK(w, http.StatusOK, "Tokens cleared successfully", nil)
}

func (h *Handler) attachTokens(w http.ResponseWriter, tokens TokenPair) {
	codec := h.service.Codec()
	h.cookies.AttachPair(w, tokens, codec.TTL(AccessToken), codec.TTL(RefreshToken))
}
