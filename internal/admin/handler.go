package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"taxsavings-backend/internal/auth"
	"taxsavings-backend/internal/httpx"
	"taxsavings-backend/internal/middleware"
	"taxsavings-backend/internal/transport"
	"taxsavings-backend/internal/validation"
)

const refreshCookiePath = "/api/v1/admin"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	authn        *Authenticator
	tokens       *auth.Manager
	val          *validation.Validator
	log          *slog.Logger
	cookieSecure bool
}

// NewHandler wires the login endpoints. tokens may be nil when JWT_SECRET is
// unset; login then answers 503.
func NewHandler(authn *Authenticator, tokens *auth.Manager, val *validation.Validator, cookieSecure bool, log *slog.Logger) *Handler {
	return &Handler{
		authn:        authn,
		tokens:       tokens,
		val:          val,
		log:          log,
		cookieSecure: cookieSecure,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	if h.tokens == nil || !h.authn.Configured() {
		log.Warn("admin login: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	subject, err := h.authn.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn("admin login: invalid credentials", slog.String("username", req.Username))
			transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		log.Error("admin login: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if err := h.issueSession(w, subject); err != nil {
		log.Error("admin login: token error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}
	log.Info("admin login: ok", slog.String("username", req.Username))
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok"})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if h.tokens == nil {
		log.Warn("admin refresh: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	refreshCookie, err := r.Cookie(auth.RefreshCookieName)
	if err != nil || refreshCookie.Value == "" {
		log.Warn("admin refresh: missing refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	claims, err := h.tokens.Parse(refreshCookie.Value)
	if err != nil || claims.Role != auth.RoleAdmin || claims.Kind != auth.KindRefresh {
		log.Warn("admin refresh: invalid refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	if err := h.issueSession(w, claims.Subject); err != nil {
		log.Error("admin refresh: token error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}
	log.Info("admin refresh: ok")
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	h.clearCookies(w)
	log.Info("admin logout: ok")
	transport.WriteJSON(w, http.StatusOK, LoginResponse{Status: "ok"})
}

func (h *Handler) issueSession(w http.ResponseWriter, subject string) error {
	access, err := h.tokens.NewAccessToken(subject, auth.RoleAdmin)
	if err != nil {
		return err
	}
	refresh, err := h.tokens.NewRefreshToken(subject, auth.RoleAdmin)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookieName,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokens.AccessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshCookieName,
		Value:    refresh,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokens.RefreshTTL.Seconds()),
	})
	return nil
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	expire := time.Now().Add(-1 * time.Hour)
	for name, path := range map[string]string{
		auth.AccessCookieName:  "/",
		auth.RefreshCookieName: refreshCookiePath,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expire,
			MaxAge:   -1,
		})
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
