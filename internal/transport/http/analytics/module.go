package analytics

import "go.uber.org/fx"

// Module wires HTTP analytics handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
