package handlers

import (
	"net/http"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"
)

// DebugHandler 开发环境调试接口，仅在非生产环境挂载
type DebugHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewDebugHandler 创建调试处理器
func NewDebugHandler(cfg *config.Config, s store.StoreInterface) *DebugHandler {
	return &DebugHandler{config: cfg, store: s}
}

type fixtureSample struct {
	Users      []models.UserView `json:"users"`
	Clients    []models.Client   `json:"clients"`
	Activities []models.Activity `json:"activities"`
}

type fixturesResponse struct {
	Users      int           `json:"users"`
	Clients    int           `json:"clients"`
	Activities int           `json:"activities"`
	Sample     fixtureSample `json:"sample"`
}

// Fixtures GET /api/debug/fixtures 返回数据集规模和样本，便于快速验证
func (h *DebugHandler) Fixtures(w http.ResponseWriter, r *http.Request) {
	orgIDs, err := h.store.ListOrganizationIDs()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list organizations")
		return
	}

	resp := fixturesResponse{Sample: fixtureSample{
		Users:      []models.UserView{},
		Clients:    []models.Client{},
		Activities: []models.Activity{},
	}}
	for _, orgID := range orgIDs {
		users, err := h.store.ListUsersByOrganization(orgID)
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Failed to list users")
			return
		}
		clients, err := h.store.ListClientsByOrganization(orgID)
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Failed to list clients")
			return
		}
		activities, err := h.store.ListActivitiesByOrganization(orgID)
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Failed to list activities")
			return
		}

		resp.Users += len(users)
		resp.Clients += len(clients)
		resp.Activities += len(activities)

		for _, u := range users {
			resp.Sample.Users = append(resp.Sample.Users, u.View())
		}
		resp.Sample.Clients = appendCapped(resp.Sample.Clients, clients, 10)
		resp.Sample.Activities = appendCapped(resp.Sample.Activities, activities, 10)
	}

	utils.WriteSuccessResponse(w, resp)
}

type seedResponse struct {
	Seeded map[string]store.SeedSummary `json:"seeded"`
}

// Seed POST/GET /api/debug/seed 为所有组织强制生成示例数据
func (h *DebugHandler) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := store.SeedAllOrgs(h.store, time.Now())
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Seeding failed")
		return
	}
	utils.WriteSuccessResponse(w, seedResponse{Seeded: result})
}

func appendCapped[T any](dst, src []T, limit int) []T {
	for _, v := range src {
		if len(dst) >= limit {
			break
		}
		dst = append(dst, v)
	}
	return dst
}
