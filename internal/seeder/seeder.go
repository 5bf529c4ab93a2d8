package seeder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/qr"
)

// Module exposes the seeder to CLI commands.
var Module = fx.Provide(New)

// DemoOutletSlug is the slug of the seeded outlet.
const DemoOutletSlug = "delhi-bistro-main"

const demoTables = 6

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db      *bun.DB
	baseURL string
	logger  *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, baseURL: cfg.QR.BaseURL, logger: logger}
}

// Demo seeds a restaurant with one outlet and a handful of tables. Rows use
// stable IDs so running it twice leaves the data unchanged.
func (s *Seeder) Demo(ctx context.Context) error {
	restaurant := entity.Restaurant{
		ID:       demoID("restaurant"),
		Name:     "Delhi Bistro",
		Email:    "owner@delhibistro.example",
		Currency: "INR",
	}
	outlet := entity.Outlet{
		ID:           demoID("outlet"),
		RestaurantID: restaurant.ID,
		Name:         "Delhi Bistro - Connaught Place",
		Slug:         DemoOutletSlug,
		Address:      "Block A, Connaught Place, New Delhi",
		IsActive:     true,
	}

	tables := make([]entity.Table, 0, demoTables)
	for i := 1; i <= demoTables; i++ {
		number := fmt.Sprintf("T%d", i)
		tables = append(tables, entity.Table{
			ID:          demoID("table:" + number),
			OutletID:    outlet.ID,
			TableNumber: number,
			QRDeepLink:  qr.Link(s.baseURL, outlet.Slug, number),
			Capacity:    4,
			IsActive:    true,
		})
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&restaurant).Ignore().Exec(ctx); err != nil {
			return fmt.Errorf("seed restaurant: %w", err)
		}
		if _, err := tx.NewInsert().Model(&outlet).Ignore().Exec(ctx); err != nil {
			return fmt.Errorf("seed outlet: %w", err)
		}
		if _, err := tx.NewInsert().Model(&tables).Ignore().Exec(ctx); err != nil {
			return fmt.Errorf("seed tables: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded demo outlet",
			zap.String("outlet_id", outlet.ID.String()),
			zap.String("slug", outlet.Slug),
			zap.Int("tables", len(tables)),
		)
	}
	return nil
}

func demoID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("tableorder:demo:"+name))
}
