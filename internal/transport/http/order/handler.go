package order

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/auth"
	"github.com/Additional-Code/tableorder/internal/dto"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/presentation/http/response"
	"github.com/Additional-Code/tableorder/internal/service/customer"
	service "github.com/Additional-Code/tableorder/internal/service/order"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableorder/transport/http/order")

// Service is the order behaviour the handlers depend on.
type Service interface {
	Place(ctx context.Context, outletID uuid.UUID, req service.PlaceRequest) (*entity.Order, error)
	Get(ctx context.Context, id uuid.UUID, withItems bool) (*entity.Order, error)
	List(ctx context.Context, outletID uuid.UUID, status string, limit int) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*entity.Order, error)
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Checkout is public; the rest
// requires a dashboard token.
func Register(e *echo.Echo, h *Handler, verifier *auth.Verifier) {
	e.POST("/outlets/:outletId/orders", h.place)

	requireToken := verifier.Middleware()
	e.GET("/outlets/:outletId/orders", h.list, requireToken)
	e.GET("/orders/:id", h.getByID, requireToken)
	e.PATCH("/orders/:id/status", h.updateStatus, requireToken)
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	outletID, err := uuid.Parse(c.Param("outletId"))
	if err != nil {
		return b.WithError(errorbank.NotFound("outlet not found")).Build()
	}

	var payload dto.CheckoutRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.place", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.Int("order.lines", len(payload.Items)),
	))
	defer span.End()

	order, err := h.svc.Place(ctx, outletID, toPlaceRequest(payload, c))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).
		WithData(dto.NewOrderResponse(order)).
		WithMessage("Order created successfully").
		Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	withItems := c.QueryParam("include") == "items"

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := h.svc.Get(ctx, id, withItems)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	outletID, err := uuid.Parse(c.Param("outletId"))
	if err != nil {
		return b.WithError(errorbank.NotFound("outlet not found")).Build()
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 || limit > 200 {
			return b.WithError(errorbank.BadRequest("limit must be between 0 and 200")).Build()
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(attribute.String("outlet.id", outletID.String())))
	defer span.End()

	orders, err := h.svc.List(ctx, outletID, c.QueryParam("status"), limit)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderListResponse(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload dto.StatusUpdateRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, id, payload.Status)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func toPlaceRequest(payload dto.CheckoutRequest, c echo.Context) service.PlaceRequest {
	lines := make([]service.Line, len(payload.Items))
	for i, item := range payload.Items {
		lines[i] = service.Line{
			DishID:    item.DishID,
			VariantID: item.DishVariantID,
			Name:      item.DishName,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}
	return service.PlaceRequest{
		Items:       lines,
		TableNumber: payload.TableNumber,
		Contact: customer.Contact{
			Phone: payload.CustomerPhone,
			Email: payload.CustomerEmail,
			Name:  payload.CustomerName,
			Token: payload.CustomerToken,
		},
		SpecialInstructions: payload.SpecialInstructions,
		UserAgent:           c.Request().UserAgent(),
		IPAddress:           c.RealIP(),
	}
}
