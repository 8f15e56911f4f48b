package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
	"leadflow/internal/pipeline"
)

type RuleHandler struct {
	Service RuleService
	log     zerolog.Logger
}

func NewRuleHandler(service RuleService, log zerolog.Logger) *RuleHandler {
	return &RuleHandler{Service: service, log: log}
}

type rulesBody struct {
	Rules []models.ValidationRule `json:"rules"`
}

func (h *RuleHandler) Get(c *gin.Context) {
	rules, err := h.Service.Rules(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if rules == nil {
		rules = []models.ValidationRule{}
	}
	c.JSON(http.StatusOK, rulesBody{Rules: rules})
}

// @Summary      Заменить правила валидации
// @Description  Accepts {"rules":[...]} as JSON or the same document as YAML (Content-Type: application/yaml).
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        workspace_id  path  string     true  "Workspace"
// @Param        rules         body  rulesBody  true  "Rule set"
// @Success      200  {object}  rulesBody
// @Failure      400  {object}  map[string]string
// @Router       /workspaces/{workspace_id}/rules [put]
func (h *RuleHandler) Replace(c *gin.Context) {
	var rules []models.ValidationRule
	if ct := c.ContentType(); strings.Contains(ct, "yaml") {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			badRequest(c, err)
			return
		}
		if rules, err = pipeline.ParseRules(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeInvalidRules})
			return
		}
	} else {
		var body rulesBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		rules = body.Rules
	}

	if err := h.Service.ReplaceRules(c.Request.Context(), workspaceID(c), rules); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rulesBody{Rules: rules})
}

// Validate previews the errors a move into ?stage= would produce.
func (h *RuleHandler) Validate(c *gin.Context) {
	stage := c.Query("stage")
	if stage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage query parameter is required", "code": CodeBadRequest})
		return
	}
	errs, err := h.Service.ValidateLead(c.Request.Context(), workspaceID(c), c.Param("lead_id"), stage)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": len(errs) == 0, "errors": errs})
}
