package store

import "go.uber.org/fx"

// Module provides the credential store
var Module = fx.Module("store",
	fx.Provide(
		fx.Annotate(
			NewFromConfig,
			fx.As(new(CredentialStore)),
		),
	),
)
