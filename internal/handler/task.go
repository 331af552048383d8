package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nahid/tasklist/internal/auth"
	"github.com/nahid/tasklist/internal/service"
)

// TaskHandler exposes the task CRUD + toggle operations over HTTP.
//
// The handler layer only parses requests and writes responses. Identity
// comes from the auth middleware (userID in the request context) and is
// passed explicitly into every service call — the service has no notion of
// a "current" user beyond the parameter it is handed.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// createTaskRequest is the body of POST /api/tasks.
type createTaskRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// updateTaskRequest is the body of PUT /api/tasks/{id}.
// Pointer fields distinguish "not sent" from zero values: a request that
// only sends {"completed":true} must not blank the title.
type updateTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// userID pulls the authenticated user from the request context. The routes
// are behind RequireAuth, so a miss here means broken wiring, not a normal
// anonymous request.
func (h *TaskHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.logger.Error("task handler reached without user in context",
			slog.String("path", r.URL.Path))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return "", false
	}
	return userID, true
}

// HandleList returns the caller's tasks.
//
// HTTP: GET /api/tasks?filter=all|active|completed
//
// The response echoes the filter that was actually applied, so a client
// sending garbage sees {"filter":"all"} and knows what it got:
//
//	{"tasks":[...],"filter":"active"}
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	list, err := h.tasks.List(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleGet returns a single task.
//
// HTTP: GET /api/tasks/{id}
// 404 if the id doesn't exist, 403 if it exists but belongs to someone else.
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleCreate creates a task owned by the caller.
//
// HTTP: POST /api/tasks
// Body: {"title":"buy milk","completed":false}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid task JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.Title, req.Completed)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleUpdate applies a partial update to a task.
//
// HTTP: PUT /api/tasks/{id}
// Body: {"title":"...","completed":true} — both fields optional; only the
// ones present are applied. Title and completed are the entire set of
// mutable fields.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid task JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, r.PathValue("id"), service.TaskPatch{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleToggle flips a task's completed flag.
//
// HTTP: PATCH /api/tasks/{id}/toggle
// Toggling twice is a deliberate no-op in aggregate.
func (h *TaskHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Toggle(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes a task.
//
// HTTP: DELETE /api/tasks/{id}
// 204 on success — the task is gone, there is nothing to return.
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
