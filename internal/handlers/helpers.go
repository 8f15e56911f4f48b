package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"leadflow/internal/models"
)

// Error codes returned next to "error" so clients can branch without parsing text.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeSystemStageProtected = "SYSTEM_STAGE_PROTECTED"
	CodeHasDependentLeads    = "HAS_DEPENDENT_LEADS"
	CodeStageConflict        = "STAGE_CONFLICT"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeInvalidOrdering      = "INVALID_ORDERING"
	CodeInvalidStage         = "INVALID_STAGE"
	CodeInvalidRules         = "INVALID_RULES"
	CodeBadRequest           = "BAD_REQUEST"
	CodeInternal             = "INTERNAL"
)

func getUserAndRole(c *gin.Context) (userID, role string) {
	return c.GetString("user_id"), c.GetString("role")
}

func workspaceID(c *gin.Context) string {
	return c.Param("workspace_id")
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeBadRequest})
}

// respondError maps domain errors to HTTP. Anything unrecognised is an
// infrastructure failure: logged in full, answered with a generic message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": CodeNotFound})
	case errors.Is(err, models.ErrSystemStageProtected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": CodeSystemStageProtected})
	case errors.Is(err, models.ErrHasDependentLeads):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": CodeHasDependentLeads})
	case errors.Is(err, models.ErrStageConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": CodeStageConflict})
	case errors.Is(err, models.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": CodeConcurrentUpdate})
	case errors.Is(err, models.ErrInvalidOrdering):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeInvalidOrdering})
	case errors.Is(err, models.ErrInvalidStage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeInvalidStage})
	case errors.Is(err, models.ErrInvalidRules):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": CodeInvalidRules})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(499)
	default:
		userID, _ := getUserAndRole(c)
		log.Error().Err(err).
			Str("workspace_id", workspaceID(c)).
			Str("user_id", userID).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error, please try again", "code": CodeInternal})
	}
}

// respondValidation answers a rejected transition: 422 with the field errors.
func respondValidation(c *gin.Context, errs []models.ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "errors": errs})
}
