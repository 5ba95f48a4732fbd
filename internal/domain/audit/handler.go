package audit

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

// RegisterRoutes exposes the ledger read-only, to admins only. There is
// deliberately no write endpoint; entries are recorded by the services
// that make the audited changes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleAdmin))
	g.GET("/audit-logs", h.List)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), Query{
		EntityKind: c.QueryParam("entity_kind"),
		EntityID:   c.QueryParam("entity_id"),
		ActorID:    c.QueryParam("actor_id"),
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	})
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
