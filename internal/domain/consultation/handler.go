package consultation

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
)

// Selection yields the patient a consultation is recorded against.
type Selection interface {
	Current() (registry.Patient, bool)
}

type Handler struct {
	watch     *Stopwatch
	selection Selection
}

func NewHandler(watch *Stopwatch, selection Selection) *Handler {
	return &Handler{watch: watch, selection: selection}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/consultation")
	g.GET("", h.GetState)
	g.POST("/start", h.Start)
	g.POST("/pause", h.Pause)
	g.POST("/stop", h.Stop)
}

// State is the stopwatch as shown on the home page.
type State struct {
	Running        bool   `json:"running"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Display        string `json:"display"`
	PatientID      string `json:"patientId,omitempty"`
}

type stopResponse struct {
	Recorded bool  `json:"recorded"`
	State    State `json:"state"`
	Duration int   `json:"duration,omitempty"`
}

func (h *Handler) state() State {
	elapsed := h.watch.Elapsed()
	st := State{
		Running:        h.watch.Running(),
		ElapsedSeconds: int(elapsed / time.Second),
		Display:        Format(elapsed),
	}
	if p, ok := h.selection.Current(); ok {
		st.PatientID = p.ID
	}
	return st
}

func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.state())
}

func (h *Handler) Start(c echo.Context) error {
	if _, ok := h.selection.Current(); !ok {
		return echo.NewHTTPError(http.StatusConflict, "no patient selected")
	}
	h.watch.Start()
	return c.JSON(http.StatusOK, h.state())
}

func (h *Handler) Pause(c echo.Context) error {
	h.watch.Pause()
	return c.JSON(http.StatusOK, h.state())
}

func (h *Handler) Stop(c echo.Context) error {
	p, ok := h.selection.Current()
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "no patient selected")
	}
	evt, recorded := h.watch.Stop(p.ID)
	return c.JSON(http.StatusOK, stopResponse{
		Recorded: recorded,
		State:    h.state(),
		Duration: evt.Duration,
	})
}
