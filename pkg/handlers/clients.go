package handlers

import (
	"net/http"
	"strings"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/metrics"
	"agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/timeline"
	"agency-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ClientsHandler 客户管理处理器
type ClientsHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewClientsHandler 创建客户处理器
func NewClientsHandler(cfg *config.Config, s store.StoreInterface) *ClientsHandler {
	return &ClientsHandler{config: cfg, store: s}
}

// clientView 客户响应视图，附带派生指标
type clientView struct {
	*models.Client
	LastActivityAt *time.Time            `json:"lastActivityAt"`
	DaysSinceLast  int                   `json:"daysSinceLast"`
	BusinessStatus string                `json:"businessStatus"`
	Health         *metrics.ClientHealth `json:"health,omitempty"`
}

// staffCanSee staff只能看到分配给自己的客户或demo客户
func staffCanSee(user *models.AuthUser, client *models.Client) bool {
	if user.Role != models.RoleStaff {
		return true
	}
	return client.UserID == user.Email || client.Demo
}

// enrichClient 计算客户的最近活动、天数和业务状态
func (h *ClientsHandler) enrichClient(client *models.Client, activities []models.Activity, now time.Time, withHealth bool) clientView {
	lastActivityAt := metrics.LastActivityDate(activities)
	daysSinceLast := metrics.DaysSinceLastContact(client, lastActivityAt, now)

	view := clientView{
		Client:         client,
		LastActivityAt: lastActivityAt,
		DaysSinceLast:  daysSinceLast,
		BusinessStatus: metrics.BusinessStatusFor(daysSinceLast),
	}
	if withHealth {
		health := metrics.ComputeClientHealth(client, activities, now)
		view.Health = &health
	}
	return view
}

// activitiesFor 过滤某客户的活动
func activitiesFor(activities []models.Activity, clientID string) []models.Activity {
	var result []models.Activity
	for _, a := range activities {
		if a.ClientID == clientID {
			result = append(result, a)
		}
	}
	return result
}

// getScopedClient 加载客户并执行组织归属检查
func (h *ClientsHandler) getScopedClient(w http.ResponseWriter, r *http.Request) (*models.Client, *models.AuthUser, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return nil, nil, false
	}

	id := chi.URLParam(r, "id")
	client, err := h.store.GetClient(id)
	if err != nil {
		utils.WriteNotFoundResponse(w, "Client not found")
		return nil, nil, false
	}
	if client.OrganizationID != user.OrganizationID {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return nil, nil, false
	}
	return client, user, true
}

// CreateClient 创建客户。新客户以lead状态归属创建者。
func (h *ClientsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	var req models.ClientCreateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}
	if req.Name == "" || req.Email == "" {
		utils.WriteBadRequestResponse(w, "Missing fields")
		return
	}

	now := time.Now()
	client := &models.Client{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Email:          req.Email,
		ClientState:    models.ClientLead,
		CreatedAt:      now,
		UserID:         user.Email,
		OrganizationID: user.OrganizationID,
	}
	if err := h.store.CreateClient(client); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create client")
		return
	}

	// 创建时间即为最近接触时间
	utils.WriteCreatedResponse(w, clientView{
		Client:         client,
		LastActivityAt: &client.CreatedAt,
		DaysSinceLast:  0,
		BusinessStatus: metrics.BusinessActive,
	})
}

// ListClients 列出组织内客户，携带派生指标。支持archived、state、
// userId和q过滤；staff只看到自己的或demo客户。
func (h *ClientsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return
	}
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	wantArchived := utils.GetQueryParam(r, "archived", "") == "true"
	stateFilter := utils.GetQueryParam(r, "state", "")
	userFilter := utils.GetQueryParam(r, "userId", "")
	q := strings.ToLower(utils.GetQueryParam(r, "q", ""))

	now := time.Now()
	views := []clientView{}
	for i := range clients {
		c := &clients[i]
		if c.Archived != wantArchived {
			continue
		}
		if !staffCanSee(user, c) {
			continue
		}
		if stateFilter != "" && string(c.ClientState) != stateFilter {
			continue
		}
		if userFilter != "" && c.UserID != userFilter {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Email), q) {
			continue
		}
		views = append(views, h.enrichClient(c, activitiesFor(activities, c.ID), now, true))
	}

	utils.WriteSuccessResponse(w, views)
}

// UpdateClient 更新客户。仅owner/manager可调用（路由层约束），
// 重新分配目标必须是同组织用户。
func (h *ClientsHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	client, user, ok := h.getScopedClient(w, r)
	if !ok {
		return
	}

	var req models.ClientUpdateRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}

	if req.Name != "" {
		client.Name = req.Name
	}
	if req.Email != "" {
		client.Email = req.Email
	}
	if req.ClientState != "" && models.ValidClientState(req.ClientState) {
		client.ClientState = req.ClientState
	}
	if req.UserID != "" {
		target, err := h.store.GetUserByEmail(req.UserID)
		if err != nil || target.OrganizationID != user.OrganizationID {
			utils.WriteBadRequestResponse(w, "Invalid userId")
			return
		}
		client.UserID = req.UserID
	}

	if err := h.store.UpdateClient(client); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update client")
		return
	}

	h.respondWithClient(w, client)
}

// DeleteClient 硬删除客户，仅owner可调用（路由层约束）
func (h *ClientsHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	client, _, ok := h.getScopedClient(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteClient(client.ID); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to delete client")
		return
	}
	utils.WriteNoContentResponse(w)
}

// ArchiveClient 归档客户（软删除）
func (h *ClientsHandler) ArchiveClient(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

// UnarchiveClient 取消归档
func (h *ClientsHandler) UnarchiveClient(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *ClientsHandler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	client, _, ok := h.getScopedClient(w, r)
	if !ok {
		return
	}

	client.Archived = archived
	if err := h.store.UpdateClient(client); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update client")
		return
	}

	h.respondWithClient(w, client)
}

// respondWithClient 返回客户及其重新计算的派生字段
func (h *ClientsHandler) respondWithClient(w http.ResponseWriter, client *models.Client) {
	acts, err := h.store.ListActivitiesByClient(client.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}
	utils.WriteSuccessResponse(w, h.enrichClient(client, acts, time.Now(), false))
}

// atRiskResponse GET /api/clients/at-risk 响应
type atRiskResponse struct {
	Count   int          `json:"count"`
	Clients []clientView `json:"clients"`
}

// AtRiskClients 列出14至30天无接触的客户
func (h *ClientsHandler) AtRiskClients(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return
	}
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	now := time.Now()
	views := []clientView{}
	for i := range clients {
		c := &clients[i]
		if !staffCanSee(user, c) {
			continue
		}
		acts := activitiesFor(activities, c.ID)
		lastActivityAt := metrics.LastActivityDate(acts)
		daysSinceLast := metrics.DaysSinceLastContact(c, lastActivityAt, now)
		if !metrics.IsAtRiskDays(daysSinceLast) {
			continue
		}
		views = append(views, clientView{
			Client:         c,
			LastActivityAt: lastActivityAt,
			DaysSinceLast:  daysSinceLast,
			BusinessStatus: metrics.BusinessAtRisk,
		})
	}

	utils.WriteSuccessResponse(w, atRiskResponse{Count: len(views), Clients: views})
}

// ClientHealth GET /api/clients/:id/health
func (h *ClientsHandler) ClientHealth(w http.ResponseWriter, r *http.Request) {
	client, _, ok := h.getScopedClient(w, r)
	if !ok {
		return
	}

	acts, err := h.store.ListActivitiesByClient(client.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}
	utils.WriteSuccessResponse(w, metrics.ComputeClientHealth(client, acts, time.Now()))
}

// ClientTimeline GET /api/clients/:id/timeline，支持types、groupBy、
// start、end、limit和order查询参数
func (h *ClientsHandler) ClientTimeline(w http.ResponseWriter, r *http.Request) {
	client, user, ok := h.getScopedClient(w, r)
	if !ok {
		return
	}

	acts, err := h.store.ListActivitiesByClient(client.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	// staff只看到自己创建的活动，除非客户归属自己
	if user.Role == models.RoleStaff && client.UserID != user.Email {
		var own []models.Activity
		for _, a := range acts {
			if a.UserID == user.Email {
				own = append(own, a)
			}
		}
		acts = own
	}

	query := timeline.Query{
		Types:   splitCSV(utils.GetQueryParam(r, "types", "")),
		GroupBy: utils.GetQueryParam(r, "groupBy", "day"),
		Limit:   utils.GetQueryIntParam(r, "limit", timeline.DefaultLimit, 1, timeline.MaxLimit),
		Order:   utils.GetQueryParam(r, "order", "desc"),
	}
	if t, ok := parseTimeParam(r, "start"); ok {
		query.Start = &t
	}
	if t, ok := parseTimeParam(r, "end"); ok {
		query.End = &t
	}

	utils.WriteSuccessResponse(w, timeline.BuildTimeline(acts, query))
}

// NextAction GET /api/clients/:id/next-action
func (h *ClientsHandler) NextAction(w http.ResponseWriter, r *http.Request) {
	client, _, ok := h.getScopedClient(w, r)
	if !ok {
		return
	}

	acts, err := h.store.ListActivitiesByClient(client.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}
	utils.WriteSuccessResponse(w, metrics.SuggestNextAction(client, acts, time.Now()))
}

// splitCSV 解析逗号分隔的查询参数
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseTimeParam 解析RFC3339时间查询参数
func parseTimeParam(r *http.Request, key string) (time.Time, bool) {
	raw := utils.GetQueryParam(r, key, "")
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// 也接受纯日期格式
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}
