package handlers

import (
	"net/http"

	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/utils"
)

// GET /feature/todo/
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	todos, err := h.Todos.List(r.Context(), userID)
	if err != nil {
		writeError(w, "ListTodos", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, todos)
}

// POST /feature/todo/
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateTodoRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	todo, err := h.Todos.Create(r.Context(), userID, req.Content)
	if err != nil {
		writeError(w, "CreateTodo", err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, todo)
}

// PUT /feature/todo/{id}
func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := utils.PathID(r, "id")
	if !ok {
		utils.ErrorResponse(w, http.StatusNotFound, "Todo not found")
		return
	}

	var req models.UpdateTodoRequest
	if err := utils.ParseJSONBody(r, &req); err != nil || req.Completed == nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "completed is required")
		return
	}

	if err := h.Todos.SetCompleted(r.Context(), userID, id, *req.Completed); err != nil {
		writeError(w, "UpdateTodo", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Todo updated"})
}

// DELETE /feature/todo/{id}
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := utils.PathID(r, "id")
	if !ok {
		utils.ErrorResponse(w, http.StatusNotFound, "Todo not found")
		return
	}

	if err := h.Todos.Delete(r.Context(), userID, id); err != nil {
		writeError(w, "DeleteTodo", err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Todo deleted"})
}
