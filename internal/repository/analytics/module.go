package analytics

import "go.uber.org/fx"

// Module provides the analytics event repository to Fx.
var Module = fx.Provide(NewRepository)
