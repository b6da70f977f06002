package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/services"
	"github.com/branchbook/branchbook-api/utils"
)

func (h *Handler) startSession(w http.ResponseWriter, status int, session *services.Session) {
	auth.SetRefreshCookie(w, h.Cookies, session.RefreshToken, h.RefreshTTL)
	utils.JSONResponse(w, status, models.TokenResponse{AccessToken: session.AccessToken})
}

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.Credentials.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			slog.Error("Register: store failure", "error", err)
			utils.ErrorResponse(w, http.StatusServiceUnavailable, services.Message(err))
			return
		}
		writeError(w, "Register", err)
		return
	}

	h.startSession(w, http.StatusCreated, session)
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.Credentials.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "Login", err)
		return
	}

	slog.Info("user logged in", "user_id", session.UserID)
	h.startSession(w, http.StatusOK, session)
}

// POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := auth.RefreshTokenFromRequest(r)
	if token == "" {
		utils.ErrorResponse(w, http.StatusUnauthorized, "No refresh token")
		return
	}

	session, err := h.Credentials.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrAuth) {
			// A rotated-away session means a concurrent refresh already set a
			// newer cookie; clearing now would delete that one.
			if !errors.Is(err, services.ErrSessionGone) {
				auth.ClearRefreshCookie(w, h.Cookies)
			}
			utils.ErrorResponse(w, http.StatusForbidden, services.Message(err))
			return
		}
		writeError(w, "Refresh", err)
		return
	}

	h.startSession(w, http.StatusOK, session)
}

// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Credentials.Logout(r.Context(), auth.RefreshTokenFromRequest(r)); err != nil {
		slog.Error("Logout: failed to delete session", "error", err)
	}

	auth.ClearRefreshCookie(w, h.Cookies)
	utils.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
}
