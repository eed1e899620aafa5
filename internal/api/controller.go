// Package api exposes the coherence engine over HTTP.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contractiq/coherence/internal/coherence"
	"github.com/contractiq/coherence/internal/datastore/repository"
	"github.com/contractiq/coherence/internal/errors"
	"github.com/contractiq/coherence/internal/logger"
)

// Controller holds the dependencies of the HTTP handlers.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	service *coherence.Service
	audit   repository.WeightProfileRepository
	log     logger.Logger
}

// Options configure a Controller. Audit and Gatherer are optional.
type Options struct {
	Service   *coherence.Service
	Audit     repository.WeightProfileRepository
	Gatherer  prometheus.Gatherer
	Logger    logger.Logger
	BodyLimit string
}

// New creates an echo instance with every route registered under /api/v1.
func New(opts Options) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	c := &Controller{
		Echo:    e,
		Group:   e.Group("/api/v1"),
		service: opts.Service,
		audit:   opts.Audit,
		log:     log.With(logger.String("component", "api")),
	}

	e.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	c.initScoringRoutes()
	c.initProfileRoutes()
	c.initGamingRoutes()
	return c
}

// HandleError writes a JSON error. Validation, rule-contract and not-found
// errors get their own status; anything else uses code.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		code = http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryRuleContract):
		code = http.StatusUnprocessableEntity
	case errors.IsCategory(err, errors.CategoryNotFound):
		code = http.StatusNotFound
	}
	if code >= http.StatusInternalServerError {
		c.log.Error(message,
			logger.String("path", ctx.Path()),
			logger.Error(err))
	}
	return ctx.JSON(code, map[string]string{
		"error":   message,
		"message": err.Error(),
	})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, map[string]string{"error": message})
}
