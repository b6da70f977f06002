package handlers

import (
	"net/http"

	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/utils"
)

// GET /feature/branches/
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	branches, err := h.Graph.ListBranches(r.Context(), userID)
	if err != nil {
		writeError(w, "ListBranches", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, branches)
}

// POST /feature/branches/
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateBranchRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	branch, err := h.Graph.CreateBranch(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, "CreateBranch", err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, branch)
}

// DELETE /feature/branches/{id}
func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	branchID, ok := utils.PathID(r, "id")
	if !ok {
		utils.ErrorResponse(w, http.StatusNotFound, "Branch not found")
		return
	}

	if err := h.Graph.DeleteBranch(r.Context(), userID, branchID); err != nil {
		writeError(w, "DeleteBranch", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Branch deleted"})
}
