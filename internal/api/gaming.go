package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/contractiq/coherence/internal/antigaming"
	"github.com/contractiq/coherence/internal/datastore/repository"
	"github.com/contractiq/coherence/internal/logger"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

func (c *Controller) initGamingRoutes() {
	c.Group.POST("/detect", c.DetectGaming)
	c.Group.POST("/projects/:id/events", c.RecordEvent)
	c.Group.GET("/audit", c.ListGamingAudit)
	c.Group.DELETE("/audit", c.PurgeGamingAudit)
}

// detectRequest is the body of a standalone detection call.
type detectRequest struct {
	Events        []antigaming.AlertEvent `json:"events"`
	Score         *float64                `json:"score,omitempty"`
	DocumentCount *int                    `json:"document_count,omitempty"`
	Now           string                  `json:"now,omitempty"`
}

// requireAudit answers requests that need the gaming audit table when no
// database is configured.
func requireAudit(ctx echo.Context) error {
	return ctx.JSON(http.StatusConflict, map[string]string{"error": "Gaming audit requires a database"})
}

// DetectGaming runs the detector over the supplied events.
func (c *Controller) DetectGaming(ctx echo.Context) error {
	var req detectRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	in := antigaming.Inputs{
		Score:         req.Score,
		DocumentCount: req.DocumentCount,
	}
	if req.Now != "" {
		now, err := antigaming.ParseTimestamp(req.Now)
		if err != nil {
			return badRequest(ctx, "Invalid now timestamp")
		}
		in.Now = &now
	}

	verdict := c.service.Detector().Detect(req.Events, in)
	return ctx.JSON(http.StatusOK, verdict)
}

// RecordEvent buffers an alert event for a project.
func (c *Controller) RecordEvent(ctx echo.Context) error {
	projectID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid project ID")
	}

	var event antigaming.AlertEvent
	if err := ctx.Bind(&event); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if !event.Type.IsValid() {
		return badRequest(ctx, "Unknown event type")
	}

	c.service.RecordEvent(projectID, event)
	return ctx.JSON(http.StatusAccepted, map[string]any{
		"project_id": projectID,
		"type":       event.Type,
	})
}

// ListGamingAudit returns paginated gaming verdicts.
func (c *Controller) ListGamingAudit(ctx echo.Context) error {
	if c.audit == nil {
		return requireAudit(ctx)
	}

	filter := repository.GamingAuditFilter{
		ProjectID: ctx.QueryParam("project_id"),
		TenantID:  ctx.QueryParam("tenant_id"),
		Limit:     defaultAuditLimit,
	}
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		v, err := strconv.Atoi(limitParam)
		if err == nil && v > 0 {
			filter.Limit = min(v, maxAuditLimit)
		}
	}
	if offsetParam := ctx.QueryParam("offset"); offsetParam != "" {
		v, err := strconv.Atoi(offsetParam)
		if err == nil && v >= 0 {
			filter.Offset = v
		}
	}

	items, total, err := c.audit.ListAudit(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list gaming audit", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"audit":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// PurgeGamingAudit deletes audit records detected before the "before"
// query parameter (RFC 3339).
func (c *Controller) PurgeGamingAudit(ctx echo.Context) error {
	if c.audit == nil {
		return requireAudit(ctx)
	}

	before, err := antigaming.ParseTimestamp(ctx.QueryParam("before"))
	if err != nil {
		return badRequest(ctx, "Invalid or missing before timestamp")
	}

	deleted, err := c.audit.DeleteAuditBefore(ctx.Request().Context(), before)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to purge gaming audit", http.StatusInternalServerError)
	}

	c.log.Info("gaming audit purged",
		logger.Int64("deleted", deleted),
		logger.String("before", before.UTC().Format(time.RFC3339)))
	return ctx.JSON(http.StatusOK, map[string]any{"deleted": deleted})
}
