package api

import (
	"time"

	"github.com/dcmc-apps/taskmanager/internal/domain"
	"github.com/dcmc-apps/taskmanager/internal/service"
)

// Work groups

// WorkGroupRequest is the payload for creating or replacing a work group.
type WorkGroupRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// WorkGroupResponse is a work group, with the caller's role when listed
// through /work-groups/mine.
type WorkGroupResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Role        string `json:"role,omitempty"`
}

// MembershipResponse is one membership of a user in a work group.
type MembershipResponse struct {
	WorkGroupID string `json:"work_group_id"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
}

// MemberSummaryResponse is one member in a work group detail view.
type MemberSummaryResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ProjectSummaryResponse is one project in a work group detail view.
type ProjectSummaryResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WorkGroupDetailResponse is a work group with its projects and members.
type WorkGroupDetailResponse struct {
	WorkGroupResponse
	Projects []ProjectSummaryResponse `json:"projects"`
	Members  []MemberSummaryResponse  `json:"members"`
}

// Tasks

// CreateTaskRequest is the payload for POST /tasks.
type CreateTaskRequest struct {
	WorkGroupID     string     `json:"work_group_id"    validate:"required,uuid"`
	Title           string     `json:"title"            validate:"required,max=200"`
	Description     string     `json:"description"      validate:"max=2000"`
	StatusID        *string    `json:"status_id"        validate:"omitempty,uuid"`
	PriorityID      *string    `json:"priority_id"      validate:"omitempty,uuid"`
	AssignedMembers []string   `json:"assigned_members"`
	CreateTime      *time.Time `json:"create_time"`
}

// UpdateTaskRequest is the payload for PUT /tasks/{id}. Omitted optional
// fields are reset.
type UpdateTaskRequest struct {
	Title           string   `json:"title"            validate:"required,max=200"`
	Description     string   `json:"description"      validate:"max=2000"`
	StatusID        *string  `json:"status_id"        validate:"omitempty,uuid"`
	PriorityID      *string  `json:"priority_id"      validate:"omitempty,uuid"`
	AssignedMembers []string `json:"assigned_members"`
}

// PatchTaskRequest is the payload for PATCH /tasks/{id}. Omitted fields are
// left unchanged.
type PatchTaskRequest struct {
	Title           *string   `json:"title"            validate:"omitempty,min=1,max=200"`
	Description     *string   `json:"description"      validate:"omitempty,max=2000"`
	StatusID        *string   `json:"status_id"        validate:"omitempty,uuid"`
	PriorityID      *string   `json:"priority_id"      validate:"omitempty,uuid"`
	AssignedMembers *[]string `json:"assigned_members"`
}

// TaskResponse is a task as returned by the API.
type TaskResponse struct {
	ID              string    `json:"id"`
	WorkGroupID     string    `json:"work_group_id"`
	ProjectID       *string   `json:"project_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StatusID        string    `json:"status_id"`
	PriorityID      *string   `json:"priority_id,omitempty"`
	AssignedMembers []string  `json:"assigned_members"`
	Archived        bool      `json:"archived"`
	CreateTime      time.Time `json:"create_time"`
	UpdateTime      time.Time `json:"update_time"`
}

// Projects

// CreateProjectRequest is the payload for POST /projects.
type CreateProjectRequest struct {
	WorkGroupID string   `json:"work_group_id" validate:"required,uuid"`
	Title       string   `json:"title"         validate:"required,max=200"`
	Description string   `json:"description"   validate:"max=2000"`
	Members     []string `json:"members"`
}

// UpdateProjectRequest is the payload for PUT /projects/{id}.
type UpdateProjectRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// ProjectMembersRequest is the payload for PUT /projects/{id}/members.
type ProjectMembersRequest struct {
	Members []string `json:"members" validate:"required"`
}

// AssignTasksRequest is the payload for POST /projects/{id}/tasks.
type AssignTasksRequest struct {
	TaskIDs []string `json:"task_ids" validate:"required,min=1,dive,uuid"`
}

// ProjectResponse is a project as returned by the API.
type ProjectResponse struct {
	ID          string   `json:"id"`
	WorkGroupID string   `json:"work_group_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

// TaskSummaryResponse is a compact task view with catalog names resolved.
type TaskSummaryResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
	Archived bool   `json:"archived"`
}

// Catalog

// StatusRequest is the payload for creating or replacing a task status.
type StatusRequest struct {
	Name    string `json:"name"    validate:"required,max=100"`
	Visible *bool  `json:"visible"`
}

// StatusPatchRequest is the payload for PATCH /task-statuses/{id}.
type StatusPatchRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=1,max=100"`
	Visible *bool   `json:"visible"`
}

// PriorityRequest is the payload for creating or replacing a task priority.
type PriorityRequest struct {
	Name    string `json:"name"    validate:"required,max=100"`
	Level   int    `json:"level"   validate:"gte=0"`
	Visible *bool  `json:"visible"`
}

// PriorityPatchRequest is the payload for PATCH /task-priorities/{id}.
type PriorityPatchRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=1,max=100"`
	Level   *int    `json:"level"   validate:"omitempty,gte=0"`
	Visible *bool   `json:"visible"`
}

// StatusResponse is a task status as returned by the API.
type StatusResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// PriorityResponse is a task priority as returned by the API.
type PriorityResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Visible bool   `json:"visible"`
}

func workGroupToResponse(wg *domain.WorkGroup) WorkGroupResponse {
	return WorkGroupResponse{
		ID:          wg.ID.String(),
		Name:        wg.Name,
		Description: wg.Description,
	}
}

func membershipToResponse(m *domain.Membership) MembershipResponse {
	return MembershipResponse{
		WorkGroupID: m.WorkGroupID.String(),
		UserID:      m.UserID,
		Role:        m.Role.String(),
	}
}

func detailToResponse(d *service.WorkGroupDetail) WorkGroupDetailResponse {
	resp := WorkGroupDetailResponse{
		WorkGroupResponse: workGroupToResponse(d.WorkGroup),
		Projects:          make([]ProjectSummaryResponse, 0, len(d.Projects)),
		Members:           make([]MemberSummaryResponse, 0, len(d.Members)),
	}
	for _, p := range d.Projects {
		resp.Projects = append(resp.Projects, ProjectSummaryResponse{ID: p.ID.String(), Title: p.Title})
	}
	for _, m := range d.Members {
		resp.Members = append(resp.Members, MemberSummaryResponse{UserID: m.UserID, Role: m.Role.String()})
	}
	return resp
}

func taskToResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:              t.ID.String(),
		WorkGroupID:     t.WorkGroupID.String(),
		Title:           t.Title,
		Description:     t.Description,
		StatusID:        t.StatusID.String(),
		AssignedMembers: t.AssignedMembers,
		Archived:        t.Archived,
		CreateTime:      t.CreateTime,
		UpdateTime:      t.UpdateTime,
	}
	if resp.AssignedMembers == nil {
		resp.AssignedMembers = []string{}
	}
	if t.ProjectID != nil {
		s := t.ProjectID.String()
		resp.ProjectID = &s
	}
	if t.PriorityID != nil {
		s := t.PriorityID.String()
		resp.PriorityID = &s
	}
	return resp
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}

func projectToResponse(p *domain.Project) ProjectResponse {
	members := p.Members
	if members == nil {
		members = []string{}
	}
	return ProjectResponse{
		ID:          p.ID.String(),
		WorkGroupID: p.WorkGroupID.String(),
		Title:       p.Title,
		Description: p.Description,
		Members:     members,
	}
}

func statusToResponse(s *domain.TaskStatus) StatusResponse {
	return StatusResponse{ID: s.ID.String(), Name: s.Name, Visible: s.Visible}
}

func priorityToResponse(p *domain.TaskPriority) PriorityResponse {
	return PriorityResponse{ID: p.ID.String(), Name: p.Name, Level: p.Level, Visible: p.Visible}
}
