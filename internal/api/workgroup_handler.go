package api

import (
	"log/slog"
	"net/http"

	"github.com/dcmc-apps/taskmanager/internal/api/shared"
	"github.com/dcmc-apps/taskmanager/internal/platform/logger"
	"github.com/dcmc-apps/taskmanager/internal/service"
	"github.com/go-chi/chi/v5"
)

// WorkGroupHandler serves work group and membership endpoints.
type WorkGroupHandler struct {
	workGroups  service.WorkGroupService
	memberships service.MembershipService
	logger      *slog.Logger
}

// NewWorkGroupHandler creates a new WorkGroupHandler.
func NewWorkGroupHandler(
	workGroups service.WorkGroupService,
	memberships service.MembershipService,
	logger *slog.Logger,
) *WorkGroupHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for WorkGroupHandler")
	}
	return &WorkGroupHandler{
		workGroups:  workGroups,
		memberships: memberships,
		logger:      logger.With(slog.String("component", "workgroup_handler")),
	}
}

// CreateWorkGroup handles POST /work-groups. The caller becomes the OWNER.
func (h *WorkGroupHandler) CreateWorkGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req WorkGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	wg, err := h.memberships.CreateWorkGroup(r.Context(), actor, service.CreateWorkGroupInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).
		Info("work group created", slog.String("work_group_id", wg.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, workGroupToResponse(wg))
}

// ListMine handles GET /work-groups/mine.
func (h *WorkGroupHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groups, err := h.workGroups.ListMyWorkGroups(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	resp := make([]WorkGroupResponse, 0, len(groups))
	for _, g := range groups {
		item := workGroupToResponse(g.WorkGroup)
		item.Role = g.Role.String()
		resp = append(resp, item)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetWorkGroup handles GET /work-groups/{id}.
func (h *WorkGroupHandler) GetWorkGroup(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	wg, err := h.workGroups.GetWorkGroup(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, workGroupToResponse(wg))
}

// GetWorkGroupDetail handles GET /work-groups/{id}/detail.
func (h *WorkGroupHandler) GetWorkGroupDetail(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.workGroups.GetWorkGroupDetail(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, detailToResponse(detail))
}

// UpdateWorkGroup handles PUT /work-groups/{id}.
func (h *WorkGroupHandler) UpdateWorkGroup(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var req WorkGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	wg, err := h.workGroups.UpdateWorkGroup(r.Context(), actor, id, service.UpdateWorkGroupInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, workGroupToResponse(wg))
}

// DeleteWorkGroup handles DELETE /work-groups/{id}.
func (h *WorkGroupHandler) DeleteWorkGroup(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.workGroups.DeleteWorkGroup(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}

// AddMember handles POST /work-groups/{id}/members/{userID}.
func (h *WorkGroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.memberships.AddMember(r.Context(), actor, id, chi.URLParam(r, "userID"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, membershipToResponse(m))
}

// RemoveMember handles DELETE /work-groups/{id}/members/{userID}.
func (h *WorkGroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.memberships.RemoveMember(r.Context(), actor, id, chi.URLParam(r, "userID")); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}

// PromoteMember handles PUT /work-groups/{id}/promote-to-moderator/{userID}.
func (h *WorkGroupHandler) PromoteMember(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.memberships.PromoteMember(r.Context(), actor, id, chi.URLParam(r, "userID"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, membershipToResponse(m))
}

// DemoteModerator handles PUT /work-groups/{id}/demote-moderator/{userID}.
func (h *WorkGroupHandler) DemoteModerator(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.memberships.DemoteModerator(r.Context(), actor, id, chi.URLParam(r, "userID"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, membershipToResponse(m))
}

// TransferOwnership handles PUT /work-groups/{id}/transfer-ownership/{userID}.
func (h *WorkGroupHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	newOwner := chi.URLParam(r, "userID")
	if err := h.memberships.TransferOwnership(r.Context(), actor, id, newOwner); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).
		Info("ownership transferred",
			slog.String("work_group_id", id.String()),
			slog.String("new_owner", newOwner))
	shared.RespondNoContent(w)
}

// LeaveGroup handles DELETE /work-groups/{id}/leave.
func (h *WorkGroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.memberships.LeaveGroup(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondNoContent(w)
}
