package reports

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

// PatientLister yields the current registry contents.
type PatientLister interface {
	ListPatients() []registry.Patient
}

type Handler struct {
	patients PatientLister
}

func NewHandler(patients PatientLister) *Handler {
	return &Handler{patients: patients}
}

// RegisterRoutes mounts the JSON summary under api and the chart page under
// pages.
func (h *Handler) RegisterRoutes(api, pages *echo.Group) {
	api.GET("/reports", h.GetSummary)
	pages.GET("/reports", h.GetChartsPage)
}

func (h *Handler) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, Summarize(h.patients.ListPatients()))
}

func (h *Handler) GetChartsPage(c echo.Context) error {
	var buf bytes.Buffer
	if err := RenderCharts(&buf, Summarize(h.patients.ListPatients())); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
