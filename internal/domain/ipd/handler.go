package ipd

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReception))
	g.GET("/beds", h.ListBeds)
	g.GET("/beds/:id", h.GetBed)
	g.POST("/admissions", h.Admit)
	g.GET("/admissions/:id", h.GetAdmission)
	g.POST("/admissions/:id/transfer", h.Transfer)
	g.GET("/admissions/:id/transfers", h.Transfers)
	g.GET("/patients/:id/admissions", h.ListByPatient)

	// Bed inventory is an admin concern.
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/beds", h.AddBed)
	admin.PATCH("/beds/:id/maintenance", h.SetMaintenance)
	admin.PATCH("/beds/:id/available", h.ReturnToService)
}

func (h *Handler) AddBed(c echo.Context) error {
	var b Bed
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddBed(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBed(c echo.Context) error {
	b, err := h.svc.GetBed(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) SetMaintenance(c echo.Context) error {
	if err := h.svc.SetBedMaintenance(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ReturnToService(c echo.Context) error {
	if err := h.svc.ReturnBedToService(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListBeds(c echo.Context) error {
	pg := pagination.FromContext(c)
	beds, total, err := h.svc.ListBeds(c.Request().Context(),
		BedStatus(c.QueryParam("status")), WardClass(c.QueryParam("ward")), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(beds, total, pg.Limit, pg.Offset))
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	adm, err := h.svc.Admit(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, adm)
}

func (h *Handler) GetAdmission(c echo.Context) error {
	adm, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, adm)
}

func (h *Handler) Transfer(c echo.Context) error {
	var req struct {
		BedID string `json:"bed_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	adm, err := h.svc.Transfer(c.Request().Context(), c.Param("id"), req.BedID)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, adm)
}

func (h *Handler) Transfers(c echo.Context) error {
	transfers, err := h.svc.Transfers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, transfers)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	admissions, total, err := h.svc.ListByPatient(c.Request().Context(), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg.Limit, pg.Offset))
}
