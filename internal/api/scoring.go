package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contractiq/coherence/internal/coherence"
	"github.com/contractiq/coherence/internal/logger"
	"github.com/contractiq/coherence/internal/rules"
)

// maxBatchSize caps the number of projects in one batch request.
const maxBatchSize = 500

func (c *Controller) initScoringRoutes() {
	c.Group.GET("/catalog", c.GetCatalog)
	c.Group.POST("/evaluate", c.EvaluateProject)
	c.Group.POST("/evaluate/batch", c.EvaluateBatch)
}

// GetCatalog returns the known categories, severities and rules.
func (c *Controller) GetCatalog(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, rules.GetCatalog())
}

// EvaluateProject scores one project.
func (c *Controller) EvaluateProject(ctx echo.Context) error {
	var facts coherence.ProjectFacts
	if err := ctx.Bind(&facts); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	report, err := c.service.Evaluate(ctx.Request().Context(), facts)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to evaluate project", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, report)
}

// EvaluateBatch scores a list of projects; reports keep the request order.
func (c *Controller) EvaluateBatch(ctx echo.Context) error {
	var payload struct {
		Projects []coherence.ProjectFacts `json:"projects"`
	}
	if err := ctx.Bind(&payload); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	if len(payload.Projects) > maxBatchSize {
		return badRequest(ctx, "Too many projects in one batch")
	}

	reports, err := c.service.EvaluateBatch(ctx.Request().Context(), payload.Projects)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to evaluate batch", http.StatusInternalServerError)
	}

	c.log.Debug("batch evaluated", logger.Int("count", len(reports)))
	return ctx.JSON(http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}
