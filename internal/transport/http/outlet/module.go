package outlet

import "go.uber.org/fx"

// Module wires HTTP outlet handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
