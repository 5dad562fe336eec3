package registry

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/viniciussiqueiradecampos/dash-medicina/pkg/pagination"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.AddPatient)
	api.POST("/patients/reset", h.Reset)
	api.GET("/patients/current", h.GetCurrent)
	api.PUT("/patients/current", h.SetCurrent)
	api.GET("/patients/upcoming", h.ListUpcoming)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.RemovePatient)
}

// selectRequest is the body of PUT /patients/current.
type selectRequest struct {
	ID string `json:"id"`
}

func (h *Handler) ListPatients(c echo.Context) error {
	filtered := Filter(h.store.ListPatients(), FilterOptions{
		Search:     c.QueryParam("q"),
		Gender:     c.QueryParam("gender"),
		Label:      c.QueryParam("label"),
		Completion: c.QueryParam("completion"),
		LastVisit:  c.QueryParam("last_visit"),
	})

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Slice(filtered, pg), len(filtered), pg.Limit, pg.Offset))
}

func (h *Handler) ListUpcoming(c echo.Context) error {
	return c.JSON(http.StatusOK, UpcomingPatients(h.store.ListPatients(), 4))
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.store.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetCurrent(c echo.Context) error {
	p, ok := h.store.Current()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no patient selected")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SetCurrent(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	if err := h.store.SetCurrent(c.Request().Context(), req.ID); err != nil {
		return httpError(err)
	}
	p, _ := h.store.Current()
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AddPatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.store.AddPatient(c.Request().Context(), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = c.Param("id")
	if err := h.store.UpdatePatient(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) RemovePatient(c echo.Context) error {
	if err := h.store.RemovePatient(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Reset(c echo.Context) error {
	if err := h.store.Reset(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.store.ListPatients())
}

// httpError maps store errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidPatient), errors.Is(err, ErrServiceTimerDecreased):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
