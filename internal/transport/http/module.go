package http

import (
	"go.uber.org/fx"

	analyticstransport "github.com/Additional-Code/tableorder/internal/transport/http/analytics"
	ordertransport "github.com/Additional-Code/tableorder/internal/transport/http/order"
	outlettransport "github.com/Additional-Code/tableorder/internal/transport/http/outlet"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	outlettransport.Module,
	analyticstransport.Module,
)
