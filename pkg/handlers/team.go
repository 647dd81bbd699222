package handlers

import (
	"net/http"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// TeamHandler 团队管理处理器
type TeamHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewTeamHandler 创建团队处理器
func NewTeamHandler(cfg *config.Config, s store.StoreInterface) *TeamHandler {
	return &TeamHandler{config: cfg, store: s}
}

// teamMember 团队成员视图，附带最近活动时间
type teamMember struct {
	models.UserView
	LastActivityAt *time.Time `json:"lastActivityAt"`
}

// ListTeam 列出组织成员。staff只能看到自己。
func (h *TeamHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	users, err := h.store.ListUsersByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list team")
		return
	}

	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	lastByUser := map[string]*time.Time{}
	for i := range activities {
		a := &activities[i]
		if cur := lastByUser[a.UserID]; cur == nil || a.Date.After(*cur) {
			d := a.Date
			lastByUser[a.UserID] = &d
		}
	}

	members := []teamMember{}
	for _, u := range users {
		if user.Role == models.RoleStaff && u.Email != user.Email {
			continue
		}
		members = append(members, teamMember{
			UserView:       u.View(),
			LastActivityAt: lastByUser[u.Email],
		})
	}

	utils.WriteSuccessResponse(w, members)
}

// updateMemberRequest 角色变更请求
type updateMemberRequest struct {
	Role models.Role `json:"role"`
}

// UpdateMember 修改成员角色。owner可任意指派；manager只能将
// staff成员的角色设为staff；staff无权限。
func (h *TeamHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	var req updateMemberRequest
	if err := utils.ParseJSONBody(r, &req); err != nil || !models.ValidRole(req.Role) {
		utils.WriteBadRequestResponse(w, "Invalid role")
		return
	}

	email := chi.URLParam(r, "email")
	existing, err := h.store.GetUserByEmail(email)
	if err != nil || existing.OrganizationID != user.OrganizationID {
		utils.WriteNotFoundResponse(w, "Not found")
		return
	}

	switch user.Role {
	case models.RoleOwner:
		// owner可指派任何角色
	case models.RoleManager:
		if existing.Role != models.RoleStaff {
			utils.WriteForbiddenResponse(w, "Managers can only modify staff members")
			return
		}
		if req.Role != models.RoleStaff {
			utils.WriteForbiddenResponse(w, "Managers cannot promote to manager/owner")
			return
		}
	default:
		utils.WriteForbiddenResponse(w, "Permission denied")
		return
	}

	existing.Role = req.Role
	if err := h.store.UpdateUser(existing); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update member")
		return
	}

	utils.WriteSuccessResponse(w, existing.View())
}
