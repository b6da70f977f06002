package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/services"
	"github.com/branchbook/branchbook-api/utils"
)

type Handler struct {
	Credentials *services.CredentialService
	Todos       *services.TodoService
	Graph       *services.GraphService

	Cookies    auth.CookieOptions
	RefreshTTL time.Duration
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrStaleVersion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs store failures with their cause and answers with the
// caller-safe message only.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+": store failure", "error", err)
	}
	utils.ErrorResponse(w, status, services.Message(err))
}

func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := utils.GetUserID(r)
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}
