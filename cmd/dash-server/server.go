package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/config"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/clinical"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/consultation"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/labs"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/reports"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/kv"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/metrics"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/middleware"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/websocket"
)

const version = "0.1.0"

// app holds every long-lived component of the server.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	storage kv.Storage
	bus     *eventbus.Bus
	store   *registry.Store
	metrics *metrics.Metrics
	hub     *websocket.Hub
	watch   *consultation.Stopwatch
	labs    *labs.Service
	closers []func()
}

// newApp wires the registry, its reactors and the live-update fan-out on
// top of storage. The caller owns storage until Close.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, storage kv.Storage) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		storage: storage,
		bus:     eventbus.New(),
		metrics: metrics.New(),
		hub:     websocket.NewHub(logger),
	}

	a.store = registry.New(storage, a.bus,
		registry.WithLogger(logger),
		registry.WithRecorder(a.metrics),
	)
	if cfg.EagerInit {
		if err := a.store.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	recorder := registry.NewServiceTimeRecorder(a.store, a.bus, logger)
	applier := registry.NewPrescriptionApplier(a.store, a.bus, logger)
	a.watch = consultation.NewStopwatch(a.bus, consultation.WithLogger(logger))
	a.labs = labs.NewService(a.store, labs.WithLogger(logger))

	a.closers = append(a.closers,
		recorder.Close,
		applier.Close,
		websocket.Bridge(a.bus, a.hub, time.Now),
		a.metrics.ObserveBus(a.bus),
	)
	a.metrics.ObserveClients(a.hub.ClientCount)
	return a, nil
}

// routes builds the HTTP server.
func (a *app) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(a.metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", a.health)
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	pages := e.Group("")

	registry.NewHandler(a.store).RegisterRoutes(apiV1)
	consultation.NewHandler(a.watch, a.store).RegisterRoutes(apiV1)
	clinical.NewHandler(a.store).RegisterRoutes(apiV1)
	labs.NewHandler(a.labs).RegisterRoutes(apiV1)
	reports.NewHandler(a.store).RegisterRoutes(apiV1, pages)
	websocket.NewWebSocketHandler(a.hub, a.bus, a.cfg.CORSOrigins).RegisterRoutes(apiV1)

	apiV1.POST("/events/:topic", a.publishEvent)

	return e
}

func (a *app) health(c echo.Context) error {
	storage := "durable"
	if a.store.Degraded() {
		storage = "memory-only"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
		"storage": storage,
	})
}

// publishEvent injects a view-layer message onto the bus.
func (a *app) publishEvent(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg, err := eventbus.PublishJSON(a.bus, c.Param("topic"), body)
	switch {
	case errors.Is(err, eventbus.ErrUnknownTopic):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, eventbus.ErrReadOnlyTopic):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusAccepted, msg)
}

// Close detaches subscribers and releases storage.
func (a *app) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	return a.storage.Close()
}
