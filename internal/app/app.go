package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/tableorder/internal/auth"
	"github.com/Additional-Code/tableorder/internal/cache"
	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/logger"
	"github.com/Additional-Code/tableorder/internal/messaging"
	"github.com/Additional-Code/tableorder/internal/observability"
	"github.com/Additional-Code/tableorder/internal/qr"
	repositoryanalytics "github.com/Additional-Code/tableorder/internal/repository/analytics"
	repositorycustomer "github.com/Additional-Code/tableorder/internal/repository/customer"
	repositoryorder "github.com/Additional-Code/tableorder/internal/repository/order"
	repositoryoutlet "github.com/Additional-Code/tableorder/internal/repository/outlet"
	grpcserver "github.com/Additional-Code/tableorder/internal/server/grpc"
	httpserver "github.com/Additional-Code/tableorder/internal/server/http"
	serviceanalytics "github.com/Additional-Code/tableorder/internal/service/analytics"
	servicecustomer "github.com/Additional-Code/tableorder/internal/service/customer"
	serviceorder "github.com/Additional-Code/tableorder/internal/service/order"
	transporthttp "github.com/Additional-Code/tableorder/internal/transport/http"
	"github.com/Additional-Code/tableorder/internal/worker"
	workerorder "github.com/Additional-Code/tableorder/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
)

// Domain provides repositories and services on top of Core.
var Domain = fx.Options(
	Core,
	repositoryoutlet.Module,
	repositorycustomer.Module,
	repositoryorder.Module,
	repositoryanalytics.Module,
	servicecustomer.Module,
	serviceorder.Module,
	serviceanalytics.Module,
	qr.Module,
	auth.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the domain modules.
var HTTP = fx.Options(
	Domain,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
