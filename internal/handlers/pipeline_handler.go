package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/pdf"
)

// PipelineHandler serves the board and every lead movement on it.
type PipelineHandler struct {
	Transitions TransitionService
	Promotions  PromotionService
	Reports     pdf.Generator
	log         zerolog.Logger
}

func NewPipelineHandler(transitions TransitionService, promotions PromotionService, reports pdf.Generator, log zerolog.Logger) *PipelineHandler {
	return &PipelineHandler{Transitions: transitions, Promotions: promotions, Reports: reports, log: log}
}

// @Summary      Канбан-доска
// @Tags         Pipeline
// @Produce      json
// @Param        workspace_id  path  string  true  "Workspace"
// @Success      200  {array}  models.BoardColumn
// @Router       /workspaces/{workspace_id}/board [get]
func (h *PipelineHandler) Board(c *gin.Context) {
	cols, err := h.Transitions.Board(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cols)
}

func (h *PipelineHandler) BoardReport(c *gin.Context) {
	ws := workspaceID(c)
	cols, err := h.Transitions.Board(c.Request.Context(), ws)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	err = h.Reports.BoardReport(&buf, pdf.BoardReportData{
		WorkspaceID: ws,
		GeneratedAt: time.Now(),
		Columns:     cols,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pipeline_%s.pdf"`, ws))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary      Перевести лид на другой этап
// @Description  Validation failures are returned as 422 with the list of field errors; the lead is not moved.
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        workspace_id  path  string                    true  "Workspace"
// @Param        lead_id       path  string                    true  "Lead"
// @Param        request       body  models.TransitionRequest  true  "Target stage"
// @Success      200  {object}  models.TransitionResult
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  models.TransitionResult
// @Router       /workspaces/{workspace_id}/leads/{lead_id}/transition [post]
func (h *PipelineHandler) Transition(c *gin.Context) {
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.LeadID = c.Param("lead_id")

	res, err := h.Transitions.RequestTransition(c.Request.Context(), workspaceID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !res.OK {
		respondValidation(c, res.Errors)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Порядок лидов внутри этапа
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        workspace_id  path  string                      true  "Workspace"
// @Param        stage_id      path  string                      true  "Stage"
// @Param        order         body  models.ReorderLeadsRequest  true  "Every lead of the stage, in the new order"
// @Success      200  {array}   models.SortAssignment
// @Failure      400  {object}  map[string]string
// @Router       /workspaces/{workspace_id}/stages/{stage_id}/leads/order [put]
func (h *PipelineHandler) ReorderLeads(c *gin.Context) {
	var req models.ReorderLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	assignments, err := h.Transitions.ReorderWithinStage(c.Request.Context(), workspaceID(c), c.Param("stage_id"), req.LeadIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// MessageSent is called once a message to the lead was delivered.
func (h *PipelineHandler) MessageSent(c *gin.Context) {
	res, advanced, err := h.Promotions.OnMessageSent(c.Request.Context(), workspaceID(c), c.Param("lead_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advanced": advanced, "ok": res.OK, "errors": res.Errors, "lead": res.Lead})
}

func (h *PipelineHandler) PromoteEligible(c *gin.Context) {
	out, err := h.Promotions.PromoteEligible(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
