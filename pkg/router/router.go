// Package router assembles the HTTP API.
package router

import (
	"net/http"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/handlers"
	customMiddleware "agency-crm-backend/pkg/middleware"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New 构建完整的API路由
func New(cfg *config.Config, s store.StoreInterface) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, s)
	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))
	router.Use(customMiddleware.CORS(cfg))
	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))
	router.Use(customMiddleware.MaxBodySize(1 << 20)) // 1MB
	router.Use(customMiddleware.ContentTypeJSON)

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, s store.StoreInterface) {
	authHandler := handlers.NewAuthHandler(cfg, s)
	clientsHandler := handlers.NewClientsHandler(cfg, s)
	activitiesHandler := handlers.NewActivitiesHandler(cfg, s)
	statsHandler := handlers.NewStatsHandler(cfg, s)
	notesHandler := handlers.NewNotesHandler(cfg, s)
	searchHandler := handlers.NewSearchHandler(cfg, s)
	teamHandler := handlers.NewTeamHandler(cfg, s)

	// 健康检查
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.HealthCheck(); err != nil {
			utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		utils.WriteSuccessResponse(w, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		// 认证（无需token）
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// 需要认证的路由
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthMiddleware(cfg))

			r.Route("/clients", func(r chi.Router) {
				r.Post("/", clientsHandler.CreateClient)
				r.Get("/", clientsHandler.ListClients)
				r.Get("/at-risk", clientsHandler.AtRiskClients)
				r.Get("/{id}/health", clientsHandler.ClientHealth)
				r.Get("/{id}/timeline", clientsHandler.ClientTimeline)
				r.Get("/{id}/next-action", clientsHandler.NextAction)
				r.Post("/{id}/archive", clientsHandler.ArchiveClient)
				r.Post("/{id}/unarchive", clientsHandler.UnarchiveClient)

				// 更新需要owner/manager，硬删除仅限owner
				r.With(customMiddleware.RequireRoles(models.RoleOwner, models.RoleManager)).
					Put("/{id}", clientsHandler.UpdateClient)
				r.With(customMiddleware.RequireRoles(models.RoleOwner)).
					Delete("/{id}", clientsHandler.DeleteClient)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Get("/", activitiesHandler.ListActivities)
				r.Get("/recent", activitiesHandler.RecentActivities)
				r.Post("/", activitiesHandler.CreateActivity)
				r.Put("/{id}", activitiesHandler.UpdateActivity)
				r.Delete("/{id}", activitiesHandler.DeleteActivity)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/clients-active", statsHandler.ClientsActive)
				r.Get("/activities-per-week", statsHandler.ActivitiesPerWeek)
				r.Get("/upcoming", statsHandler.Upcoming)
				r.Get("/clients-no-recent", statsHandler.ClientsNoRecent)
				r.Get("/clients-most-at-risk", statsHandler.ClientsMostAtRisk)
				r.Get("/clients-over-time", statsHandler.ClientsOverTime)
				r.Get("/avg-time-between-contacts", statsHandler.AvgTimeBetweenContacts)
				r.Get("/churned-per-month", statsHandler.ChurnedPerMonth)
				r.Get("/activities-by-type", statsHandler.ActivitiesByType)
				r.Get("/most-frequent-activities", statsHandler.MostFrequentActivities)
				r.Get("/activity-frequency", statsHandler.ActivityFrequency)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", notesHandler.ListNotes)
				r.Post("/", notesHandler.CreateNote)
				r.Delete("/{id}", notesHandler.DeleteNote)
			})

			r.Get("/search", searchHandler.GlobalSearch)

			r.Route("/team", func(r chi.Router) {
				r.Get("/", teamHandler.ListTeam)
				r.With(customMiddleware.RequireRoles(models.RoleOwner, models.RoleManager)).
					Put("/{email}", teamHandler.UpdateMember)
			})
		})

		// 调试接口仅在开发环境开放
		if cfg.IsDevelopment() {
			debugHandler := handlers.NewDebugHandler(cfg, s)
			r.Route("/debug", func(r chi.Router) {
				r.Get("/fixtures", debugHandler.Fixtures)
				r.Get("/seed", debugHandler.Seed)
				r.Post("/seed", debugHandler.Seed)
			})
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
