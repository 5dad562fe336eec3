package labs

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/labs/orders", h.ListOrders)
	api.POST("/labs/orders", h.RequestOrder)
	api.PUT("/labs/orders/:id/status", h.UpdateStatus)
	api.GET("/labs/history", h.ListHistory)
	api.GET("/labs/exams", h.ListExams)
}

// statusRequest is the body of PUT /labs/orders/:id/status.
type statusRequest struct {
	Status OrderStatus `json:"status"`
}

func (h *Handler) ListOrders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Orders(c.QueryParam("q"), c.QueryParam("status")))
}

func (h *Handler) ListHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.History(c.QueryParam("q")))
}

func (h *Handler) ListExams(c echo.Context) error {
	return c.JSON(http.StatusOK, ExamCategories)
}

func (h *Handler) RequestOrder(c echo.Context) error {
	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.Request(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, registry.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidOrder):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStatusRegression):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
