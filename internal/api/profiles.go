package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contractiq/coherence/internal/logger"
	"github.com/contractiq/coherence/internal/model"
	"github.com/contractiq/coherence/internal/scoring"
)

func (c *Controller) initProfileRoutes() {
	profiles := c.Group.Group("/profiles")
	profiles.GET("", c.ListProfiles)
	profiles.POST("", c.CreateProfile)
	profiles.GET("/:name", c.GetProfile)
	profiles.PUT("/:name", c.UpdateProfile)
	profiles.GET("/:name/history", c.GetProfileHistory)
}

// profileRequest is the body of profile create and update calls.
type profileRequest struct {
	Name        string        `json:"name"`
	ProjectType string        `json:"project_type"`
	Weights     model.Weights `json:"weights"`
	Normalize   bool          `json:"normalize"`
}

// ListProfiles returns the current version of every profile.
func (c *Controller) ListProfiles(ctx echo.Context) error {
	registry := c.service.Registry()
	names := registry.Names()
	profiles := make([]scoring.WeightProfile, 0, len(names))
	for _, name := range names {
		p, err := registry.GetProfile(name)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to list profiles", http.StatusInternalServerError)
		}
		profiles = append(profiles, p)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// GetProfile returns the current version of one profile.
func (c *Controller) GetProfile(ctx echo.Context) error {
	p, err := c.service.Registry().GetProfile(ctx.Param("name"))
	if err != nil {
		return c.HandleError(ctx, err, "Profile not found", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, p)
}

// GetProfileHistory returns every version of a profile, oldest first.
func (c *Controller) GetProfileHistory(ctx echo.Context) error {
	name := ctx.Param("name")
	history := c.service.Registry().GetHistory(name)
	if len(history) == 0 {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Profile not found"})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"name":     name,
		"versions": history,
	})
}

// CreateProfile stores a new profile, or a new version when the name exists.
func (c *Controller) CreateProfile(ctx echo.Context) error {
	var req profileRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	p, err := c.service.Registry().CreateProfile(scoring.WeightProfile{
		Name:        req.Name,
		ProjectType: req.ProjectType,
		Weights:     req.Weights,
	}, req.Normalize)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create profile", http.StatusInternalServerError)
	}

	c.log.Info("weight profile created",
		logger.String("name", p.Name),
		logger.Int("version", p.Version))
	return ctx.JSON(http.StatusCreated, p)
}

// UpdateProfile replaces the weights of an existing profile.
func (c *Controller) UpdateProfile(ctx echo.Context) error {
	var req profileRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	p, err := c.service.Registry().UpdateProfile(ctx.Param("name"), req.Weights, req.Normalize)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to update profile", http.StatusInternalServerError)
	}

	c.log.Info("weight profile updated",
		logger.String("name", p.Name),
		logger.Int("version", p.Version))
	return ctx.JSON(http.StatusOK, p)
}
