package bootstrap

import (
	"studio-booking/internal/handler/middleware"
	"studio-booking/internal/pkg/authtoken"
	"studio-booking/internal/pkg/config"

	"go.uber.org/fx"
)

var AuthModule = fx.Module("auth",
	fx.Provide(
		fx.Annotate(
			NewTokenValidator,
			fx.As(new(middleware.TokenValidator)),
		),
	),
)

func NewTokenValidator(cfg config.Config) *authtoken.Validator {
	return authtoken.NewValidator(cfg.JWT)
}
