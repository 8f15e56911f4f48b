package routes

import (
	"github.com/gin-gonic/gin"

	"leadflow/internal/handlers"
	"leadflow/internal/middleware"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Stages   *handlers.StageHandler
	Rules    *handlers.RuleHandler
	Pipeline *handlers.PipelineHandler
	Leads    *handlers.LeadHandler
	Events   *handlers.EventsHandler
}

func SetupRoutes(r *gin.Engine, jwtSecret []byte, h Handlers) *gin.Engine {
	// ---- public
	r.GET("/healthz", h.Health.Health)

	// ---- protected
	ws := r.Group("/workspaces/:workspace_id",
		middleware.AuthMiddleware(jwtSecret),
		middleware.RequireWorkspaceAccess(),
		middleware.ReadOnlyGuard(),
	)
	admin := middleware.RequireElevated()

	// STAGES
	stages := ws.Group("/stages")
	{
		stages.GET("", h.Stages.List)
		stages.POST("", admin, h.Stages.Create)
		stages.PUT("/order", admin, h.Stages.Reorder)
		stages.POST("/seed", admin, h.Stages.Seed)
		stages.PUT("/:stage_id", admin, h.Stages.Update)
		stages.DELETE("/:stage_id", admin, h.Stages.Delete)
		stages.PUT("/:stage_id/leads/order", h.Pipeline.ReorderLeads)
	}

	// RULES
	ws.GET("/rules", h.Rules.Get)
	ws.PUT("/rules", admin, h.Rules.Replace)

	// BOARD
	ws.GET("/board", h.Pipeline.Board)
	ws.GET("/board/report.pdf", h.Pipeline.BoardReport)

	// LEADS
	leads := ws.Group("/leads")
	{
		leads.POST("", h.Leads.Create)
		leads.GET("/:lead_id", h.Leads.GetByID)
		leads.GET("/:lead_id/activity", h.Leads.ListActivity)
		leads.GET("/:lead_id/validate", h.Rules.Validate)
		leads.POST("/:lead_id/transition", h.Pipeline.Transition)
		leads.POST("/:lead_id/events/message-sent", h.Pipeline.MessageSent)
	}

	// LIVE FEED
	if h.Events != nil {
		ws.GET("/events", h.Events.Stream)
	}

	// AUTOMATION
	ws.POST("/pipeline/promote-eligible", admin, h.Pipeline.PromoteEligible)

	return r
}
