package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/logger"
	"github.com/Additional-Code/tableorder/internal/orderstate"
	repo "github.com/Additional-Code/tableorder/internal/repository/order"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

// statusAttempts bounds how often UpdateStatus re-reads an order whose status
// was changed by another writer between the read and the write.
const statusAttempts = 3

// UpdateStatus moves an order to target. Only status and updated_at change.
// The policy is checked against the status the write is conditioned on.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.target_status", target),
	))
	defer span.End()

	next, err := orderstate.Parse(target)
	if err != nil {
		return nil, errorbank.BadRequest("invalid status", errorbank.WithDetail("status", target))
	}

	var (
		current *entity.Order
		updated *entity.Order
	)
	for attempt := 0; updated == nil; attempt++ {
		if attempt == statusAttempts {
			return nil, errorbank.Conflict("order status changed concurrently, retry the update")
		}

		current, err = s.orders.GetCurrent(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.NotFound("order not found")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Dependency("failed to load order", err)
		}

		if err := s.authorizeOutlet(ctx, current.OutletID); err != nil {
			return nil, err
		}

		if !s.policy.Allows(current.Status, next) {
			return nil, errorbank.Unprocessable("status transition not allowed",
				errorbank.WithDetail("from", current.Status.String()),
				errorbank.WithDetail("to", next.String()),
				errorbank.WithDetail("allowed", s.policy.Targets(current.Status)),
			)
		}

		updated, err = s.orders.UpdateStatus(ctx, id, current.Status, next)
		switch {
		case err == nil:
		case errors.Is(err, repo.ErrStatusChanged):
			s.logger.Debug("order status moved underneath update, re-checking",
				zap.String("order_id", id.String()),
				zap.String("expected", current.Status.String()),
			)
		case errors.Is(err, repo.ErrNotFound):
			return nil, errorbank.NotFound("order not found")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Dependency("failed to update order status", err)
		}
	}

	s.evictFromCache(ctx, id)
	s.publishStatusChanged(ctx, updated, current.Status)
	s.metrics.StatusChanged(ctx, current.Status.String(), updated.Status.String())

	logger.WithTrace(ctx, s.logger).Info("order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", current.Status.String()),
		zap.String("to", updated.Status.String()),
	)
	return updated, nil
}
