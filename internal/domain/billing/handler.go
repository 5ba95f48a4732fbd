package billing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/hmserr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the ledger endpoints. Charge entry is open to
// reception; the service layer enforces the admin-only rule for manual
// lines so the check holds even for internal callers.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReception))
	g.POST("/charges", h.AddCharges)
	g.POST("/charges/timed", h.AddServiceCharges)
	g.GET("/charges/:id", h.Get)
	g.PUT("/charges/:id", h.Update)
	g.DELETE("/charges/:id", h.Delete)
	g.GET("/charges", h.List)
	g.GET("/charges/total", h.Total)
}

type addChargesRequest struct {
	Owner
	Charges []ChargeInput `json:"charges"`
}

func (h *Handler) AddCharges(c echo.Context) error {
	var req addChargesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	charges, err := h.svc.AddCharges(c.Request().Context(), req.Owner, req.Charges)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, charges)
}

type addServiceChargesRequest struct {
	Owner
	Services []ServiceChargeInput `json:"services"`
}

func (h *Handler) AddServiceCharges(c echo.Context) error {
	var req addServiceChargesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	charges, err := h.svc.AddServiceCharges(c.Request().Context(), req.Owner, req.Services)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, charges)
}

func (h *Handler) Get(c echo.Context) error {
	charge, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, charge)
}

func (h *Handler) Update(c echo.Context) error {
	var in ChargeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	charge, err := h.svc.UpdateCharge(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, charge)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.DeleteCharge(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func ownerFromQuery(c echo.Context) Owner {
	return Owner{
		VisitID:     c.QueryParam("visit_id"),
		AdmissionID: c.QueryParam("admission_id"),
	}
}

func (h *Handler) List(c echo.Context) error {
	charges, err := h.svc.ListFor(c.Request().Context(), ownerFromQuery(c))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, charges)
}

func (h *Handler) Total(c echo.Context) error {
	total, err := h.svc.TotalFor(c.Request().Context(), ownerFromQuery(c))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"total": total})
}
