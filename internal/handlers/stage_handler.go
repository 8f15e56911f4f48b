package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
)

type StageHandler struct {
	Service StageService
	log     zerolog.Logger
}

func NewStageHandler(service StageService, log zerolog.Logger) *StageHandler {
	return &StageHandler{Service: service, log: log}
}

// @Summary      Список этапов воронки
// @Tags         Stages
// @Produce      json
// @Param        workspace_id  path   string  true   "Workspace"
// @Param        visible       query  bool    false  "Only visible stages"
// @Success      200  {array}   models.Stage
// @Router       /workspaces/{workspace_id}/stages [get]
func (h *StageHandler) List(c *gin.Context) {
	var (
		stages []models.Stage
		err    error
	)
	if c.Query("visible") == "true" {
		stages, err = h.Service.ListVisibleStages(c.Request.Context(), workspaceID(c))
	} else {
		stages, err = h.Service.ListStages(c.Request.Context(), workspaceID(c))
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if stages == nil {
		stages = []models.Stage{}
	}
	c.JSON(http.StatusOK, stages)
}

// @Summary      Создать этап
// @Tags         Stages
// @Accept       json
// @Produce      json
// @Param        workspace_id  path  string                     true  "Workspace"
// @Param        stage         body  models.CreateStageRequest  true  "Stage"
// @Success      201  {object}  models.Stage
// @Failure      400  {object}  map[string]string
// @Router       /workspaces/{workspace_id}/stages [post]
func (h *StageHandler) Create(c *gin.Context) {
	var req models.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	stage, err := h.Service.CreateStage(c.Request.Context(), workspaceID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, stage)
}

func (h *StageHandler) Update(c *gin.Context) {
	var req models.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	stage, err := h.Service.UpdateStage(c.Request.Context(), workspaceID(c), c.Param("stage_id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

// @Summary      Удалить этап
// @Description  System stages and stages with leads cannot be deleted (409).
// @Tags         Stages
// @Param        workspace_id  path  string  true  "Workspace"
// @Param        stage_id      path  string  true  "Stage"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Router       /workspaces/{workspace_id}/stages/{stage_id} [delete]
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.Service.DeleteStage(c.Request.Context(), workspaceID(c), c.Param("stage_id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Изменить порядок этапов
// @Description  stage_ids may be a partial list. Listed stages take positions 1..n in the given order;
// @Description  unlisted stages keep their relative order and follow the listed ones. Unknown or duplicated ids give 400.
// @Tags         Stages
// @Accept       json
// @Produce      json
// @Param        workspace_id  path  string                       true  "Workspace"
// @Param        body          body  models.ReorderStagesRequest  true  "Stage ids in display order"
// @Success      200  {array}   models.Stage
// @Failure      400  {object}  map[string]string
// @Security     BearerAuth
// @Router       /workspaces/{workspace_id}/stages/order [put]
func (h *StageHandler) Reorder(c *gin.Context) {
	var req models.ReorderStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	stages, err := h.Service.ReorderStages(c.Request.Context(), workspaceID(c), req.StageIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stages)
}

// Seed inserts the configured system stages that the workspace is missing.
func (h *StageHandler) Seed(c *gin.Context) {
	n, err := h.Service.SeedSystemStages(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": n})
}
