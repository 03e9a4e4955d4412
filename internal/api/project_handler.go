package api

import (
	"log/slog"
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/google/uuid"
)

// ProjectHandler serves project endpoints and the binding of tasks and
// members to projects.
type ProjectHandler struct {
	projects service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects service.ProjectService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProjectHandler")
	}
	return &ProjectHandler{
		projects: projects,
		logger:   logger.With(slog.String("component", "project_handler")),
	}
}

// CreateProject handles POST /projects.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	workGroupID, err := uuid.Parse(req.WorkGroupID)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("work_group_id", "has invalid format"))
		return
	}

	p, err := h.projects.CreateProject(r.Context(), actor, service.CreateProjectInput{
		WorkGroupID: workGroupID,
		Title:       req.Title,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, projectToResponse(p))
}

// ListProjects handles GET /work-groups/{id}/projects.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, workGroupID, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	projects, err := h.projects.ListProjects(r.Context(), actor, workGroupID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, projectToResponse(p))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetProject handles GET /projects/{id}.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.projects.GetProject(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(p))
}

// UpdateProject handles PUT /projects/{id}.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.projects.UpdateProject(r.Context(), actor, id, service.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(p))
}

// DeleteProject handles DELETE /projects/{id}.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.projects.DeleteProject(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}

// UpdateMembers handles PUT /projects/{id}/members.
func (h *ProjectHandler) UpdateMembers(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req ProjectMembersRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.projects.UpdateProjectMembers(r.Context(), actor, id, req.Members)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(p))
}

// AssignTasks handles POST /projects/{id}/tasks.
func (h *ProjectHandler) AssignTasks(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AssignTasksRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	taskIDs, err := parseUUIDs("task_ids", req.TaskIDs)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tasks, err := h.projects.AssignTasksToProject(r.Context(), actor, id, taskIDs)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).
		Debug("tasks assigned to project",
			slog.String("project_id", id.String()),
			slog.Int("count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// RemoveTask handles DELETE /projects/{id}/tasks/{taskID}.
func (h *ProjectHandler) RemoveTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	taskID, err := getPathUUID(r, "taskID")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	task, err := h.projects.RemoveTaskFromProject(r.Context(), actor, id, taskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /projects/{id}/tasks.
func (h *ProjectHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	tasks, err := h.projects.GetProjectTasks(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// ListTaskSummaries handles GET /projects/{id}/task-summaries.
func (h *ProjectHandler) ListTaskSummaries(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	summaries, err := h.projects.GetProjectTaskSummaries(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	resp := make([]TaskSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, TaskSummaryResponse{
			ID:       s.ID.String(),
			Title:    s.Title,
			Status:   s.Status,
			Priority: s.Priority,
			Archived: s.Archived,
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
