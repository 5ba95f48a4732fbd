package discharge

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/hmserr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReception))
	g.POST("/admissions/:id/settle", h.Settle)
	g.GET("/admissions/:id/bill", h.Bill)
}

// billResponse adds the derived due and credit lines so a negative net
// is reported, not left for the caller to interpret.
type billResponse struct {
	*Bill
	AmountDue decimal.Decimal `json:"amount_due"`
	Credit    decimal.Decimal `json:"credit"`
}

func toResponse(b *Bill) billResponse {
	return billResponse{Bill: b, AmountDue: b.AmountDue(), Credit: b.Credit()}
}

func (h *Handler) Settle(c echo.Context) error {
	bill, err := h.svc.Settle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, toResponse(bill))
}

func (h *Handler) Bill(c echo.Context) error {
	bill, err := h.svc.Bill(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(hmserr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toResponse(bill))
}
