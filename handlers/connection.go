package handlers

import (
	"net/http"

	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/utils"
)

// GET /feature/branches/{id}/connections
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, branchID, ok := branchScope(w, r)
	if !ok {
		return
	}

	connections, err := h.Graph.ListConnections(r.Context(), userID, branchID)
	if err != nil {
		writeError(w, "ListConnections", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, connections)
}

// POST /feature/branches/{id}/connections
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	userID, branchID, ok := branchScope(w, r)
	if !ok {
		return
	}

	var req models.CreateConnectionRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.From == nil || req.To == nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "From and to required")
		return
	}

	connection, err := h.Graph.CreateConnection(r.Context(), userID, branchID, *req.From, *req.To)
	if err != nil {
		writeError(w, "CreateConnection", err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, connection)
}
