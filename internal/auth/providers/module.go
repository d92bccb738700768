package providers

import "go.uber.org/fx"

// Module provides the Google OAuth flow adapter
var Module = fx.Module("providers",
	fx.Provide(
		fx.Annotate(
			NewGoogleProviderFromConfig,
			fx.As(new(Provider)),
		),
	),
)
