/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"customer360-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// SSE事件订阅
	eventController := controllers.NewEventController()
	r.Get("/sse/{user_name}", eventController.HandleSSE)

	// 事件管理
	r.Route("/events", func(r chi.Router) {
		r.Post("/send", eventController.SendEvent)
		r.Post("/broadcast", eventController.BroadcastEvent)
		r.Get("/connections", eventController.GetConnections)
		r.Get("/history", eventController.GetEventHistory)
	})

	// 上传事件摄入
	r.Route("/ingest", func(r chi.Router) {
		ingestController := controllers.NewIngestController()
		r.Post("/events", ingestController.ProcessEvents)
	})

	// 数据质量
	r.Route("/quality", func(r chi.Router) {
		qualityController := controllers.NewQualityController()
		r.Get("/score", qualityController.GetCorpusScore)
		r.Get("/scores", qualityController.GetScores)
		r.Get("/scores/{source}", qualityController.GetScore)
		r.Post("/rescan", qualityController.RescanAll)
		r.Post("/rescan/{source}", qualityController.Rescan)
	})

	// 整合作业运行
	r.Route("/runs", func(r chi.Router) {
		runController := controllers.NewRunController()
		r.Get("/", runController.ListRuns)
		r.Post("/trigger", runController.TriggerRun)
		r.Get("/{job_id}", runController.GetRun)
	})

	// 客户画像
	r.Route("/profiles", func(r chi.Router) {
		profileController := controllers.NewProfileController()
		r.Get("/", profileController.ListProfiles)
		r.Get("/{customer_id}", profileController.GetProfile)
	})
}
