package api

import (
	"log/slog"
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/service"
)

// CatalogHandler serves the task status and task priority catalogs.
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog service.CatalogService, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CatalogHandler")
	}
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "catalog_handler")),
	}
}

func statusesToResponse(statuses []*domain.TaskStatus) []StatusResponse {
	out := make([]StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, statusToResponse(s))
	}
	return out
}

func prioritiesToResponse(priorities []*domain.TaskPriority) []PriorityResponse {
	out := make([]PriorityResponse, 0, len(priorities))
	for _, p := range priorities {
		out = append(out, priorityToResponse(p))
	}
	return out
}

// Task statuses

// ListStatuses handles GET /task-statuses.
func (h *CatalogHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	h.listStatuses(w, r, false)
}

// ListVisibleStatuses handles GET /task-statuses/visible.
func (h *CatalogHandler) ListVisibleStatuses(w http.ResponseWriter, r *http.Request) {
	h.listStatuses(w, r, true)
}

func (h *CatalogHandler) listStatuses(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	statuses, err := h.catalog.ListStatuses(r.Context(), actor, visibleOnly)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statusesToResponse(statuses))
}

// GetStatus handles GET /task-statuses/{id}.
func (h *CatalogHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.catalog.GetStatus(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(s))
}

// CreateStatus handles POST /task-statuses.
func (h *CatalogHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := h.catalog.CreateStatus(r.Context(), actor, service.StatusInput{Name: req.Name, Visible: req.Visible})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, statusToResponse(s))
}

// UpdateStatus handles PUT /task-statuses/{id}.
func (h *CatalogHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := h.catalog.UpdateStatus(r.Context(), actor, id, service.StatusInput{Name: req.Name, Visible: req.Visible})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(s))
}

// PatchStatus handles PATCH /task-statuses/{id}.
func (h *CatalogHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req StatusPatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := h.catalog.PatchStatus(r.Context(), actor, id, service.StatusPatch{Name: req.Name, Visible: req.Visible})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(s))
}

// DeleteStatus handles DELETE /task-statuses/{id}.
func (h *CatalogHandler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteStatus(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}

// HideStatus handles POST /task-statuses/{id}/hide.
func (h *CatalogHandler) HideStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatusVisible(w, r, false)
}

// UnhideStatus handles POST /task-statuses/{id}/unhide.
func (h *CatalogHandler) UnhideStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatusVisible(w, r, true)
}

func (h *CatalogHandler) setStatusVisible(w http.ResponseWriter, r *http.Request, visible bool) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.catalog.SetStatusVisible(r.Context(), actor, id, visible)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(s))
}

// Task priorities

// ListPriorities handles GET /task-priorities.
func (h *CatalogHandler) ListPriorities(w http.ResponseWriter, r *http.Request) {
	h.listPriorities(w, r, false)
}

// ListVisiblePriorities handles GET /task-priorities/visible.
func (h *CatalogHandler) ListVisiblePriorities(w http.ResponseWriter, r *http.Request) {
	h.listPriorities(w, r, true)
}

func (h *CatalogHandler) listPriorities(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	priorities, err := h.catalog.ListPriorities(r.Context(), actor, visibleOnly)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, prioritiesToResponse(priorities))
}

// GetPriority handles GET /task-priorities/{id}.
func (h *CatalogHandler) GetPriority(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetPriority(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, priorityToResponse(p))
}

// CreatePriority handles POST /task-priorities.
func (h *CatalogHandler) CreatePriority(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req PriorityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.catalog.CreatePriority(r.Context(), actor, service.PriorityInput{
		Name:    req.Name,
		Level:   req.Level,
		Visible: req.Visible,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, priorityToResponse(p))
}

// UpdatePriority handles PUT /task-priorities/{id}.
func (h *CatalogHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req PriorityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.catalog.UpdatePriority(r.Context(), actor, id, service.PriorityInput{
		Name:    req.Name,
		Level:   req.Level,
		Visible: req.Visible,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, priorityToResponse(p))
}

// PatchPriority handles PATCH /task-priorities/{id}.
func (h *CatalogHandler) PatchPriority(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req PriorityPatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.catalog.PatchPriority(r.Context(), actor, id, service.PriorityPatch{
		Name:    req.Name,
		Level:   req.Level,
		Visible: req.Visible,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, priorityToResponse(p))
}

// DeletePriority handles DELETE /task-priorities/{id}.
func (h *CatalogHandler) DeletePriority(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeletePriority(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}

// HidePriority handles POST /task-priorities/{id}/hide.
func (h *CatalogHandler) HidePriority(w http.ResponseWriter, r *http.Request) {
	h.setPriorityVisible(w, r, false)
}

// UnhidePriority handles POST /task-priorities/{id}/unhide.
func (h *CatalogHandler) UnhidePriority(w http.ResponseWriter, r *http.Request) {
	h.setPriorityVisible(w, r, true)
}

func (h *CatalogHandler) setPriorityVisible(w http.ResponseWriter, r *http.Request, visible bool) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.catalog.SetPriorityVisible(r.Context(), actor, id, visible)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, priorityToResponse(p))
}
