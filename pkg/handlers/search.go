package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"
)

// SearchHandler 全局搜索处理器
type SearchHandler struct {
	config *config.Config
	store  store.StoreInterface
}

// NewSearchHandler 创建搜索处理器
func NewSearchHandler(cfg *config.Config, s store.StoreInterface) *SearchHandler {
	return &SearchHandler{config: cfg, store: s}
}

// searchResult 搜索结果条目。Date只在activity类型时出现。
type searchResult struct {
	Type      string     `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	Date      *time.Time `json:"date,omitempty"`
	ClientID  string     `json:"clientId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	// 排序用的统一时间戳，不序列化
	sortAt time.Time
}

// GlobalSearch GET /api/search?q=... 在客户名称/邮箱、活动类型/描述、
// 笔记标题/正文中做子串匹配，按时间倒序合并返回
func (h *SearchHandler) GlobalSearch(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	q := strings.ToLower(strings.TrimSpace(utils.GetQueryParam(r, "q", "")))
	if q == "" {
		utils.WriteSuccessResponse(w, []searchResult{})
		return
	}

	results := []searchResult{}

	clients, err := h.store.ListClientsByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Search failed")
		return
	}
	for i := range clients {
		c := &clients[i]
		hay := strings.ToLower(c.Name + " " + c.Email)
		if strings.Contains(hay, q) {
			created := c.CreatedAt
			results = append(results, searchResult{
				Type: "client", ID: c.ID, Title: c.Name, Snippet: c.Email,
				CreatedAt: &created, sortAt: created,
			})
		}
	}

	activities, err := h.store.ListActivitiesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Search failed")
		return
	}
	for i := range activities {
		a := &activities[i]
		hay := strings.ToLower(a.Type + " " + a.Description)
		if strings.Contains(hay, q) {
			date := a.Date
			results = append(results, searchResult{
				Type: "activity", ID: a.ID, Title: a.Type, Snippet: a.Description,
				Date: &date, ClientID: a.ClientID, sortAt: date,
			})
		}
	}

	notes, err := h.store.ListNotesByOrganization(user.OrganizationID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Search failed")
		return
	}
	for i := range notes {
		n := &notes[i]
		hay := strings.ToLower(n.Title + " " + n.Body)
		if strings.Contains(hay, q) {
			title := n.Title
			if title == "" {
				title = n.Body
				if len(title) > 40 {
					title = title[:40]
				}
			}
			created := n.CreatedAt
			results = append(results, searchResult{
				Type: "note", ID: n.ID, Title: title, Snippet: n.Body,
				CreatedAt: &created, sortAt: created,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].sortAt.After(results[j].sortAt) })
	utils.WriteSuccessResponse(w, results)
}
