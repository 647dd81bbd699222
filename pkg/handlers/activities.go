package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ActivitiesHandler 活动管理处理器
type ActivitiesHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewActivitiesHandler 创建活动处理器
func NewActivitiesHandler(cfg *config.Config, s store.StoreInterface) *ActivitiesHandler {
	return &ActivitiesHandler{config: cfg, store: s}
}

// CreateActivity 创建活动。type、date、clientId必填；staff只能为
// 自己名下的客户创建活动。新活动初始为scheduled状态。
func (h *ActivitiesHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	var req models.ActivityCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}
	if req.Type == "" || req.Date == nil || req.ClientID == "" {
		utils.WriteBadRequestResponse(w, "Missing fields: type, date, clientId required")
		return
	}

	finalType, err := models.ResolveActivityType(req.Type, req.CustomType)
	if err != nil {
		utils.WriteBadRequestResponse(w, err.Error())
		return
	}

	client, err := h.store.GetClient(req.ClientID)
	if err != nil || client.OrganizationID != user.OrganizationID {
		utils.WriteNotFoundResponse(w, "Client not found")
		return
	}
	if user.Role == models.RoleStaff && client.UserID != user.Email {
		utils.WriteForbiddenResponse(w, "Permission denied")
		return
	}

	activity := &models.Activity{
		ID:             uuid.New().String(),
		Type:           finalType,
		Description:    req.Description,
		Date:           *req.Date,
		ClientID:       req.ClientID,
		UserID:         user.Email,
		OrganizationID: user.OrganizationID,
		CreatedAt:      time.Now(),
		ActivityStatus: models.ActivityScheduled,
	}
	if err := h.store.CreateActivity(activity); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create activity")
		return
	}

	utils.WriteCreatedResponse(w, activity)
}

// staffVisibleActivities staff只看到自己创建的活动、自己客户的活动
// 或demo客户的活动
func staffVisibleActivities(user *models.AuthUser, activities []models.Activity, clients []models.Client) []models.Activity {
	if user.Role != models.RoleStaff {
		return activities
	}

	clientByID := map[string]*models.Client{}
	for i := range clients {
		clientByID[clients[i].ID] = &clients[i]
	}

	var visible []models.Activity
	for _, a := range activities {
		if a.UserID == user.Email {
			visible = append(visible, a)
			continue
		}
		if c := clientByID[a.ClientID]; c != nil && (c.UserID == user.Email || c.Demo) {
			visible = append(visible, a)
		}
	}
	return visible
}

// ListActivities 列出组织内活动，最新优先。读取前先完成状态对账。
// 支持clientId、types、status、q、start、end过滤。
func (h *ActivitiesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	if _, err := h.store.ReconcileActivityStatuses(time.Now()); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to reconcile activities")
		return
	}

	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	clientID := utils.GetQueryParam(r, "clientId", "")
	types := splitCSV(utils.GetQueryParam(r, "types", ""))
	status := utils.GetQueryParam(r, "status", "")
	q := strings.ToLower(utils.GetQueryParam(r, "q", ""))
	start, hasStart := parseTimeParam(r, "start")
	end, hasEnd := parseTimeParam(r, "end")

	filtered := activities[:0]
	for _, a := range activities {
		if clientID != "" && a.ClientID != clientID {
			continue
		}
		if len(types) > 0 && !containsString(types, a.Type) {
			continue
		}
		if status != "" && string(a.ActivityStatus) != status {
			continue
		}
		if hasStart && a.Date.Before(start) {
			continue
		}
		if hasEnd && a.Date.After(end) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Description), q) && !strings.Contains(strings.ToLower(a.Type), q) {
			continue
		}
		filtered = append(filtered, a)
	}

	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return
	}
	visible := staffVisibleActivities(user, filtered, clients)

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Date.After(visible[j].Date) })
	if visible == nil {
		visible = []models.Activity{}
	}
	utils.WriteSuccessResponse(w, visible)
}

// RecentActivities 最近活动，默认10条
func (h *ActivitiesHandler) RecentActivities(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	if _, err := h.store.ReconcileActivityStatuses(time.Now()); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to reconcile activities")
		return
	}

	limit := utils.GetQueryIntParam(r, "limit", 10, 1, 100)

	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}
	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return
	}

	visible := staffVisibleActivities(user, activities, clients)
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Date.After(visible[j].Date) })
	if len(visible) > limit {
		visible = visible[:limit]
	}
	if visible == nil {
		visible = []models.Activity{}
	}
	utils.WriteSuccessResponse(w, visible)
}

// getScopedActivity 加载活动并执行组织与staff归属检查
func (h *ActivitiesHandler) getScopedActivity(w http.ResponseWriter, r *http.Request) (*models.Activity, *models.AuthUser, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return nil, nil, false
	}

	id := chi.URLParam(r, "id")
	activity, err := h.store.GetActivity(id)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Not found")
		return nil, nil, false
	}
	if activity.OrganizationID != user.OrganizationID {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return nil, nil, false
	}
	// staff只能修改自己创建的活动
	if user.Role == models.RoleStaff && activity.UserID != user.Email {
		utils.WriteForbiddenResponse(w, "Permission denied")
		return nil, nil, false
	}
	return activity, user, true
}

// UpdateActivity 更新活动，空字段保持不变
func (h *ActivitiesHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	activity, user, ok := h.getScopedActivity(w, r)
	if !ok {
		return
	}

	var req models.ActivityUpdateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}

	if req.Type != "" {
		finalType, err := models.ResolveActivityType(req.Type, req.CustomType)
		if err != nil {
			utils.WriteBadRequestResponse(w, err.Error())
			return
		}
		activity.Type = finalType
	}
	if req.Description != nil {
		activity.Description = *req.Description
	}
	if req.Date != nil {
		activity.Date = *req.Date
	}
	if req.ClientID != "" {
		client, err := h.store.GetClient(req.ClientID)
		if err != nil || client.OrganizationID != user.OrganizationID {
			utils.WriteNotFoundResponse(w, "Client not found")
			return
		}
		activity.ClientID = req.ClientID
	}
	if req.ActivityStatus != "" && models.ValidActivityStatus(req.ActivityStatus) {
		activity.ActivityStatus = req.ActivityStatus
	}

	if err := h.store.UpdateActivity(activity); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update activity")
		return
	}
	utils.WriteSuccessResponse(w, activity)
}

// DeleteActivity 删除活动
func (h *ActivitiesHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	activity, _, ok := h.getScopedActivity(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteActivity(activity.ID); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete activity")
		return
	}
	utils.WriteNoContentResponse(w)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
