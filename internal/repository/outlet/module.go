package outlet

import "go.uber.org/fx"

// Module provides the outlet repository to Fx.
var Module = fx.Provide(NewRepository)
