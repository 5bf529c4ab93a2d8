package outlet

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/auth"
	"github.com/Additional-Code/tableorder/internal/dto"
	"github.com/Additional-Code/tableorder/internal/presentation/http/response"
	"github.com/Additional-Code/tableorder/internal/qr"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableorder/transport/http/outlet")

// QRService renders table deep links.
type QRService interface {
	TableLink(ctx context.Context, outletID uuid.UUID, tableNumber string) (string, error)
	TablePNG(ctx context.Context, outletID uuid.UUID, tableNumber string) ([]byte, error)
}

// Handler exposes outlet table tooling over HTTP.
type Handler struct {
	qr QRService
}

// NewHandler constructs an outlet Handler.
func NewHandler(svc *qr.Service) *Handler {
	return &Handler{qr: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, verifier *auth.Verifier) {
	e.GET("/outlets/:outletId/tables/:tableNumber/qr", h.tableQR, verifier.Middleware())
}

func (h *Handler) tableQR(c echo.Context) error {
	b := response.New(c)

	outletID, err := uuid.Parse(c.Param("outletId"))
	if err != nil {
		return b.WithError(errorbank.NotFound("outlet not found")).Build()
	}
	table := c.Param("tableNumber")

	ctx, span := httpTracer.Start(c.Request().Context(), "outlets.tableQR", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.String("table.number", table),
	))
	defer span.End()

	if c.QueryParam("format") == "png" {
		png, err := h.qr.TablePNG(ctx, outletID, table)
		if err != nil {
			return b.WithError(err).Build()
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "table-"+table+".png"))
		return c.Blob(http.StatusOK, "image/png", png)
	}

	link, err := h.qr.TableLink(ctx, outletID, table)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.TableLinkResponse{OutletID: outletID.String(), TableNumber: table, Link: link}).Build()
}
