package customer

import "go.uber.org/fx"

// Module provides the customer identity resolver to Fx.
var Module = fx.Provide(NewResolver)
