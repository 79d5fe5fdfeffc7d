package handler

import (
	"github.com/bitfantasy/rmqc/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 /rm 路由，调用方负责 JWT 鉴权
func RegisterRoutes(authorized *gin.RouterGroup, h *Handlers) {
	inspector := middleware.RequireRole(middleware.RoleInspector)

	rm := authorized.Group("/rm")
	{
		// 参考数据
		rm.GET("/spec-limits", h.Reference.SpecLimits)
		rm.GET("/tolerance-bands", h.Reference.ToleranceBands)
		rm.POST("/validate", h.Reference.Validate)

		// 报验单
		calls := rm.Group("/calls")
		{
			calls.GET("", h.Call.ListCalls)
			calls.POST("", middleware.RequireRole(middleware.RoleCallDesk), h.Call.CreateCall)
			calls.GET("/:id", h.Call.GetCall)
			calls.GET("/:id/evaluation", h.Call.Evaluate)
			calls.POST("/:id/finalize", inspector, h.Call.Finalize)
			calls.GET("/:id/report", h.Call.ExportReport)
			calls.GET("/:id/activities", h.Call.ListActivities)

			// 炉号录入
			calls.POST("/:id/heats", inspector, h.Heat.AddHeat)
			calls.DELETE("/:id/heats/:heatId", inspector, h.Heat.RemoveHeat)
			calls.PUT("/:id/heats/:heatId/visual", inspector, h.Heat.SaveVisual)
			calls.POST("/:id/heats/:heatId/visual/toggle", inspector, h.Heat.ToggleDefect)
			calls.PUT("/:id/heats/:heatId/dimensional", inspector, h.Heat.SaveDimensional)
			calls.PUT("/:id/heats/:heatId/material", inspector, h.Heat.SaveMaterial)
			calls.PUT("/:id/heats/:heatId/ladle", inspector, h.Heat.SaveLadle)
			calls.POST("/:id/ladle/import", inspector, h.Heat.ImportLadle)
		}

		// 录入草稿
		drafts := rm.Group("/drafts", inspector)
		{
			drafts.GET("/:callNo/:section", h.Draft.GetDraft)
			drafts.PUT("/:callNo/:section", h.Draft.SaveDraft)
			drafts.DELETE("/:callNo/:section", h.Draft.DeleteDraft)
		}

		rm.GET("/events", h.SSE.Stream)
	}
}
