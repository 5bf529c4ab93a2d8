package analytics

import "go.uber.org/fx"

// Module provides the analytics tracker to Fx.
var Module = fx.Provide(NewTracker)
