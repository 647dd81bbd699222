package handlers

import (
	"net/http"
	"sort"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/metrics"
	"agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/timeline"
	"agency-crm-backend/pkg/utils"
)

// StatsHandler 统计仪表盘处理器
type StatsHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(cfg *config.Config, s store.StoreInterface) *StatsHandler {
	return &StatsHandler{config: cfg, store: s}
}

// authorize 鉴权并执行staff访问限制：staff只有在组织存在demo数据
// 时才能查看统计
func (h *StatsHandler) authorize(w http.ResponseWriter, r *http.Request) (*models.AuthUser, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return nil, false
	}

	if user.Role == models.RoleStaff {
		clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
			return nil, false
		}
		hasDemo := false
		for _, c := range clients {
			if c.Demo {
				hasDemo = true
				break
			}
		}
		if !hasDemo {
			utils.WriteForbiddenResponse(w, "Permission denied")
			return nil, false
		}
	}
	return user, true
}

func (h *StatsHandler) orgData(w http.ResponseWriter, orgID string) ([]models.Client, []models.Activity, bool) {
	clients, err := h.store.ListClientsByOrganization(orgID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return nil, nil, false
	}
	activities, err := h.store.ListActivitiesByOrganization(orgID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return nil, nil, false
	}
	return clients, activities, true
}

// countResponse 简单计数响应
type countResponse struct {
	Count int `json:"count"`
}

// ClientsActive GET /api/stats/clients-active
func (h *StatsHandler) ClientsActive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return
	}

	count := 0
	for _, c := range clients {
		if c.ClientState == models.ClientActive {
			count++
		}
	}
	utils.WriteSuccessResponse(w, countResponse{Count: count})
}

// ActivitiesPerWeek GET /api/stats/activities-per-week?weeks=12
func (h *StatsHandler) ActivitiesPerWeek(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	weeks := utils.GetQueryIntParam(r, "weeks", 12, 1, 52)
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}
	utils.WriteSuccessResponse(w, timeline.ActivitiesPerWeek(activities, weeks, time.Now()))
}

// Upcoming GET /api/stats/upcoming?limit=10 列出未来活动，最早优先
func (h *StatsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	limit := utils.GetQueryIntParam(r, "limit", 10, 1, 100)
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	now := time.Now()
	upcoming := []models.Activity{}
	for _, a := range activities {
		if !a.Date.Before(now) {
			upcoming = append(upcoming, a)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date.Before(upcoming[j].Date) })
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	utils.WriteSuccessResponse(w, upcoming)
}

// noRecentEntry GET /api/stats/clients-no-recent 响应条目。
// DaysSinceLast为nil表示客户从无活动。
type noRecentEntry struct {
	Client         models.Client `json:"client"`
	LastActivityAt *time.Time    `json:"lastActivityAt"`
	DaysSinceLast  *int          `json:"daysSinceLast"`
}

// ClientsNoRecent GET /api/stats/clients-no-recent?days=30
func (h *StatsHandler) ClientsNoRecent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	days := utils.GetQueryIntParam(r, "days", 30, 1, 365)
	clients, activities, ok := h.orgData(w, user.OrganizationID)
	if !ok {
		return
	}

	now := time.Now()
	threshold := now.Add(-time.Duration(days) * 24 * time.Hour)

	result := []noRecentEntry{}
	for i := range clients {
		c := clients[i]
		last := metrics.LastActivityDate(activitiesFor(activities, c.ID))
		if last != nil && !last.Before(threshold) {
			continue
		}
		entry := noRecentEntry{Client: c, LastActivityAt: last}
		if last != nil {
			d := metrics.DaysSinceLastContact(&c, last, now)
			entry.DaysSinceLast = &d
		}
		result = append(result, entry)
	}
	utils.WriteSuccessResponse(w, result)
}

// rankedClient 健康排名条目
type rankedClient struct {
	Client models.Client        `json:"client"`
	Health metrics.ClientHealth `json:"health"`
}

// ClientsMostAtRisk GET /api/stats/clients-most-at-risk?limit=10
// 按健康评分升序排出最危险的客户
func (h *StatsHandler) ClientsMostAtRisk(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	limit := utils.GetQueryIntParam(r, "limit", 10, 1, 100)
	clients, activities, ok := h.orgData(w, user.OrganizationID)
	if !ok {
		return
	}

	now := time.Now()
	ranked := []rankedClient{}
	for i := range clients {
		c := clients[i]
		health := metrics.ComputeClientHealth(&c, activitiesFor(activities, c.ID), now)
		ranked = append(ranked, rankedClient{Client: c, Health: health})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Health.Score < ranked[j].Health.Score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	utils.WriteSuccessResponse(w, ranked)
}

// ClientsOverTime GET /api/stats/clients-over-time?days=30
func (h *StatsHandler) ClientsOverTime(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	days := utils.GetQueryIntParam(r, "days", 30, 1, 365)
	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
		return
	}
	utils.WriteSuccessResponse(w, timeline.ClientsOverTime(clients, days, time.Now()))
}

// AvgTimeBetweenContacts GET /api/stats/avg-time-between-contacts?days=365
func (h *StatsHandler) AvgTimeBetweenContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	days := utils.GetQueryIntParam(r, "days", 365, 30, 3650)
	clients, activities, ok := h.orgData(w, user.OrganizationID)
	if !ok {
		return
	}

	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	utils.WriteSuccessResponse(w, timeline.AvgTimeBetweenContacts(clients, activities, since))
}

// ChurnedPerMonth GET /api/stats/churned-per-month?months=12
func (h *StatsHandler) ChurnedPerMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	months := utils.GetQueryIntParam(r, "months", 12, 1, 60)
	clients, activities, ok := h.orgData(w, user.OrganizationID)
	if !ok {
		return
	}
	utils.WriteSuccessResponse(w, timeline.ChurnedPerMonth(clients, activities, months, time.Now()))
}

// ActivitiesByType GET /api/stats/activities-by-type?days=30
func (h *StatsHandler) ActivitiesByType(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	days := utils.GetQueryIntParam(r, "days", 30, 1, 365)
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	utils.WriteSuccessResponse(w, timeline.CountByType(activities, since))
}

// MostFrequentActivities GET /api/stats/most-frequent-activities?days=30&limit=10
func (h *StatsHandler) MostFrequentActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	days := utils.GetQueryIntParam(r, "days", 30, 1, 365)
	limit := utils.GetQueryIntParam(r, "limit", 10, 1, 100)
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}

	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	utils.WriteSuccessResponse(w, timeline.MostFrequentActivities(activities, since, limit))
}

// ActivityFrequency GET /api/stats/activity-frequency?days=7
func (h *StatsHandler) ActivityFrequency(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}

	days := utils.GetQueryIntParam(r, "days", 7, 1, 365)
	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
		return
	}
	utils.WriteSuccessResponse(w, timeline.ActivityFrequency(activities, days, time.Now()))
}
