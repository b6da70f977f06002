package handlers

import (
	"net/http"

	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/services"
	"github.com/branchbook/branchbook-api/utils"
)

// branchScope resolves the caller and the {id} branch path value.
func branchScope(w http.ResponseWriter, r *http.Request) (userID, branchID uint, ok bool) {
	userID, ok = requireUser(w, r)
	if !ok {
		return 0, 0, false
	}
	branchID, ok = utils.PathID(r, "id")
	if !ok {
		utils.ErrorResponse(w, http.StatusNotFound, "Branch not found")
		return 0, 0, false
	}
	return userID, branchID, true
}

// GET /feature/branches/{id}/nodes
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	userID, branchID, ok := branchScope(w, r)
	if !ok {
		return
	}

	nodes, err := h.Graph.ListNodes(r.Context(), userID, branchID)
	if err != nil {
		writeError(w, "ListNodes", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, nodes)
}

// POST /feature/branches/{id}/nodes
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	userID, branchID, ok := branchScope(w, r)
	if !ok {
		return
	}

	var req models.CreateNodeRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.Graph.CreateNode(r.Context(), userID, branchID, services.NodeInput{
		Name: req.Name,
		X:    req.X,
		Y:    req.Y,
		Role: req.Role,
	})
	if err != nil {
		writeError(w, "CreateNode", err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, node)
}

// PUT /feature/branches/{id}/nodes/{nodeId}
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	userID, branchID, ok := branchScope(w, r)
	if !ok {
		return
	}
	nodeID, ok := utils.PathID(r, "nodeId")
	if !ok {
		utils.ErrorResponse(w, http.StatusNotFound, "Node not found")
		return
	}

	var req models.UpdateNodeRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.Graph.UpdateNode(r.Context(), userID, branchID, nodeID, services.NodePatch{
		Name:    req.Name,
		X:       req.X,
		Y:       req.Y,
		Role:    req.Role,
		Version: req.Version,
	})
	if err != nil {
		writeError(w, "UpdateNode", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, node)
}

// DELETE /feature/branches/{id}/nodes/{nodeId}
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, branchID, ok := branchScope(w, r)
	if !ok {
		return
	}
	nodeID, ok := utils.PathID(r, "nodeId")
	if !ok {
		utils.ErrorResponse(w, http.StatusNotFound, "Node not found")
		return
	}

	if err := h.Graph.DeleteNode(r.Context(), userID, branchID, nodeID); err != nil {
		writeError(w, "DeleteNode", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Node deleted"})
}
