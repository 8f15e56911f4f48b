package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
)

type LeadHandler struct {
	Transitions TransitionService
	Activity    ActivityService
	log         zerolog.Logger
}

func NewLeadHandler(transitions TransitionService, activity ActivityService, log zerolog.Logger) *LeadHandler {
	return &LeadHandler{Transitions: transitions, Activity: activity, log: log}
}

// @Summary      Создать лид
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Param        workspace_id  path  string                    true  "Workspace"
// @Param        lead          body  models.CreateLeadRequest  true  "Lead"
// @Success      201  {object}  models.Lead
// @Failure      422  {object}  map[string]interface{}
// @Router       /workspaces/{workspace_id}/leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lead, verrs, err := h.Transitions.CreateLead(c.Request.Context(), workspaceID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(verrs) > 0 {
		respondValidation(c, verrs)
		return
	}

	userID, _ := getUserAndRole(c)
	h.log.Info().Str("workspace_id", lead.WorkspaceID).Str("lead_id", lead.ID).Str("user_id", userID).Msg("lead created")
	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) GetByID(c *gin.Context) {
	lead, err := h.Transitions.GetLead(c.Request.Context(), workspaceID(c), c.Param("lead_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) ListActivity(c *gin.Context) {
	items, err := h.Activity.ListForLead(c.Request.Context(), workspaceID(c), c.Param("lead_id"), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	c.JSON(http.StatusOK, items)
}
