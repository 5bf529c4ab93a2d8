// Package qr builds per-table deep links and renders them as QR codes.
package qr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/entity"
	outletrepo "github.com/Additional-Code/tableorder/internal/repository/outlet"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

var qrTracer = otel.Tracer("github.com/Additional-Code/tableorder/qr")

// Module provides the QR service to Fx.
var Module = fx.Provide(NewService)

// Link returns {baseURL}/m/{slug}?table={tableNumber} with the table number
// percent-encoded.
func Link(baseURL, slug, tableNumber string) string {
	base := strings.TrimRight(baseURL, "/")
	table := strings.ReplaceAll(url.QueryEscape(tableNumber), "+", "%20")
	return fmt.Sprintf("%s/m/%s?table=%s", base, url.PathEscape(slug), table)
}

// PNG renders content as a square PNG of size pixels with high error correction.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	return qrcode.Encode(content, qrcode.Highest, size)
}

// OutletStore resolves an outlet's slug.
type OutletStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Outlet, error)
}

// Service produces links and images for tables of stored outlets.
type Service struct {
	outlets OutletStore
	baseURL string
	size    int
}

// NewService wires a Service from configuration.
func NewService(cfg config.Config, outlets *outletrepo.Repository) *Service {
	return newService(outlets, cfg.QR)
}

func newService(outlets OutletStore, cfg config.QR) *Service {
	size := cfg.Size
	if size <= 0 {
		size = 300
	}
	return &Service{outlets: outlets, baseURL: cfg.BaseURL, size: size}
}

// TableLink returns the deep link for tableNumber at outletID.
func (s *Service) TableLink(ctx context.Context, outletID uuid.UUID, tableNumber string) (string, error) {
	ctx, span := qrTracer.Start(ctx, "QR.TableLink", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.String("table.number", tableNumber),
	))
	defer span.End()

	tableNumber = strings.TrimSpace(tableNumber)
	if tableNumber == "" {
		return "", errorbank.BadRequest("table number is required")
	}
	outlet, err := s.outlets.GetByID(ctx, outletID)
	if err != nil {
		if errors.Is(err, outletrepo.ErrNotFound) {
			return "", errorbank.NotFound("outlet not found")
		}
		return "", errorbank.Dependency("failed to load outlet", err)
	}
	return Link(s.baseURL, outlet.Slug, tableNumber), nil
}

// TablePNG renders the deep link of tableNumber as a PNG.
func (s *Service) TablePNG(ctx context.Context, outletID uuid.UUID, tableNumber string) ([]byte, error) {
	link, err := s.TableLink(ctx, outletID, tableNumber)
	if err != nil {
		return nil, err
	}
	png, err := PNG(link, s.size)
	if err != nil {
		return nil, errorbank.Internal("failed to render qr code", errorbank.WithCause(err))
	}
	return png, nil
}
