package clinical

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

// PatientLookup finds a registry patient by id.
type PatientLookup interface {
	Get(id string) (registry.Patient, error)
}

type Handler struct {
	patients PatientLookup
}

func NewHandler(patients PatientLookup) *Handler {
	return &Handler{patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/overview", h.GetOverview)
}

func (h *Handler) GetOverview(c echo.Context) error {
	p, err := h.patients.Get(c.Param("id"))
	if errors.Is(err, registry.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, OverviewFor(p))
}
