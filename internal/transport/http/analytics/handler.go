package analytics

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/dto"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/presentation/http/response"
	service "github.com/Additional-Code/tableorder/internal/service/analytics"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/tableorder/transport/http/analytics")

// Tracker stores client events.
type Tracker interface {
	Track(ctx context.Context, outletID uuid.UUID, ev service.Event) (*entity.AnalyticsEvent, error)
}

// Handler exposes the public event intake.
type Handler struct {
	tracker Tracker
}

// NewHandler constructs an analytics Handler.
func NewHandler(tracker *service.Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/outlets/:outletId/events", h.track)
}

func (h *Handler) track(c echo.Context) error {
	b := response.New(c)

	outletID, err := uuid.Parse(c.Param("outletId"))
	if err != nil {
		return b.WithError(errorbank.NotFound("outlet not found")).Build()
	}

	var payload dto.TrackEventRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "analytics.track", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.String("event.type", payload.EventType),
	))
	defer span.End()

	event, err := h.tracker.Track(ctx, outletID, service.Event{
		Type:          payload.EventType,
		DishID:        payload.DishID,
		CustomerToken: payload.CustomerToken,
		Metadata:      payload.Metadata,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusAccepted).WithData(dto.TrackEventResponse{
		ID:        event.ID.String(),
		EventType: event.EventType,
		CreatedAt: event.CreatedAt,
	}).Build()
}
