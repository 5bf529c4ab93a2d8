// Package dbtest opens throwaway in-memory SQLite databases carrying the
// application schema, for repository tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/entity"
)

// Models lists every table in creation order.
var Models = []any{
	(*entity.Restaurant)(nil),
	(*entity.Outlet)(nil),
	(*entity.Table)(nil),
	(*entity.Customer)(nil),
	(*entity.Order)(nil),
	(*entity.OrderItem)(nil),
	(*entity.AnalyticsEvent)(nil),
}

// New returns connections to a fresh database private to t.
func New(t testing.TB) *database.Connections {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range Models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table for %T: %v", model, err)
		}
	}
	return &database.Connections{Writer: db, Reader: db}
}

// Fixture is a restaurant with one active outlet.
type Fixture struct {
	Restaurant entity.Restaurant
	Outlet     entity.Outlet
}

// Seed inserts a restaurant and outlet and returns them.
func Seed(t testing.TB, conns *database.Connections) Fixture {
	t.Helper()
	ctx := context.Background()

	restaurant := entity.Restaurant{ID: uuid.New(), Name: "Delhi Bistro", Email: uuid.NewString() + "@example.com", Currency: "INR"}
	outlet := entity.Outlet{ID: uuid.New(), RestaurantID: restaurant.ID, Name: "Main", Slug: "main-" + uuid.NewString()[:8], IsActive: true}

	if _, err := conns.Writer.NewInsert().Model(&restaurant).Exec(ctx); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	if _, err := conns.Writer.NewInsert().Model(&outlet).Exec(ctx); err != nil {
		t.Fatalf("seed outlet: %v", err)
	}
	return Fixture{Restaurant: restaurant, Outlet: outlet}
}
