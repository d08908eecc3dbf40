package resolver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler provides the REST endpoints of the code resolution engine.
type Handler struct {
	svc *Service
}

// NewHandler creates a new resolver handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the PCS routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/pcs")
	g.POST("/resolve", h.Resolve)
	g.GET("/roots", h.Roots)
	g.GET("/tables/:root", h.Table)
	g.GET("/leads", h.Leads)
}

// resolveResponse is the wire envelope of the resolve endpoint. ok=false
// only distinguishes "engine not loaded"; an empty candidate list with
// ok=true is the legitimate no-match outcome.
type resolveResponse struct {
	OK         bool        `json:"ok"`
	Error      string      `json:"error,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// Resolve handles POST /api/v1/pcs/resolve.
func (h *Handler) Resolve(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	candidates, err := h.svc.Resolve(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrNotLoaded) {
			return c.JSON(http.StatusServiceUnavailable, resolveResponse{
				OK:         false,
				Error:      err.Error(),
				Candidates: []Candidate{},
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return c.JSON(http.StatusOK, resolveResponse{OK: true, Candidates: candidates})
}

// Roots handles GET /api/v1/pcs/roots?section=&body_system=&operation=.
func (h *Handler) Roots(c echo.Context) error {
	infos, err := h.svc.Roots(
		c.QueryParam("section"),
		c.QueryParam("body_system"),
		c.QueryParam("operation"),
	)
	if err != nil {
		if errors.Is(err, ErrNotLoaded) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, infos)
}

// Table handles GET /api/v1/pcs/tables/:root.
func (h *Handler) Table(c echo.Context) error {
	t, err := h.svc.Table(c.Param("root"))
	if err != nil {
		if errors.Is(err, ErrNotLoaded) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

// Leads handles GET /api/v1/pcs/leads?text=&limit=.
func (h *Handler) Leads(c echo.Context) error {
	text := c.QueryParam("text")
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'text' is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	leads := h.svc.Leads(text, limit)
	if leads == nil {
		leads = []string{}
	}
	return c.JSON(http.StatusOK, leads)
}
