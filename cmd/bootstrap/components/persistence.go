package components

import (
	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/readstore"
	"studio-booking/internal/infra/uow"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/usecase/queries"
	"studio-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		NewUnitOfWork,
		fx.Annotate(
			readstore.NewProviderReadStore,
			fx.As(new(queries.ProviderReads)),
		),
		fx.Annotate(
			readstore.NewCommitmentReadStore,
			fx.As(new(queries.CommitmentReads)),
		),
		fx.Annotate(
			readstore.NewBookingViewRepository,
			fx.As(new(queries.BookingViewRepo)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewUnitOfWork(pool *pgxpool.Pool, cfg config.Config) shared.UnitOfWork {
	return uow.NewPostgresUoW(pool, cfg.Booking.GuardRetries)
}
