package api

import (
	"log/slog"
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/google/uuid"
)

// TaskHandler serves task endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// parseArchivedFilter reads the archived query parameter: "false" or absent
// lists active tasks, "true" archived ones and "all" both.
func parseArchivedFilter(r *http.Request) (store.ArchivedFilter, error) {
	switch r.URL.Query().Get("archived") {
	case "", "false":
		return store.ActiveOnly, nil
	case "true":
		return store.ArchivedOnly, nil
	case "all":
		return store.AllTasks, nil
	default:
		return store.ActiveOnly, domain.NewValidationError("archived", "must be true, false or all")
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	workGroupID, err := uuid.Parse(req.WorkGroupID)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("work_group_id", "has invalid format"))
		return
	}

	input := service.CreateTaskInput{
		WorkGroupID:     workGroupID,
		Title:           req.Title,
		Description:     req.Description,
		AssignedMembers: req.AssignedMembers,
		CreateTime:      req.CreateTime,
	}
	if input.StatusID, err = parseOptionalUUID("status_id", req.StatusID); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if input.PriorityID, err = parseOptionalUUID("priority_id", req.PriorityID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), actor, input)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).
		Debug("task created",
			slog.String("task_id", task.ID.String()),
			slog.String("work_group_id", task.WorkGroupID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /work-groups/{id}/tasks?archived=true|false|all.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, workGroupID, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	filter, err := parseArchivedFilter(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	tasks, err := h.tasks.ListTasks(r.Context(), actor, workGroupID, filter)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := service.UpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		AssignedMembers: req.AssignedMembers,
	}
	var err error
	if input.StatusID, err = parseOptionalUUID("status_id", req.StatusID); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if input.PriorityID, err = parseOptionalUUID("priority_id", req.PriorityID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), actor, id, input)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// PatchTask handles PATCH /tasks/{id}.
func (h *TaskHandler) PatchTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req PatchTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := service.PartialUpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		AssignedMembers: req.AssignedMembers,
	}
	var err error
	if input.StatusID, err = parseOptionalUUID("status_id", req.StatusID); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if input.PriorityID, err = parseOptionalUUID("priority_id", req.PriorityID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.PartialUpdateTask(r.Context(), actor, id, input)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ArchiveTask handles POST /tasks/{id}/archive.
func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.tasks.ArchiveTask(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteArchivedTask handles DELETE /tasks/{id}/archived.
func (h *TaskHandler) DeleteArchivedTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteArchivedTask(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}
