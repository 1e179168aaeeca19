package repository

import (
	"context"

	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const lockProviderSQL = `
SELECT id FROM providers WHERE id = $1 FOR UPDATE`

type ProviderRepository struct {
	db db.DBTX
}

func NewProviderRepository(db db.DBTX) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// Lock takes the provider row lock. Every booking write for a provider goes
// through this lock, so overlap checks inside the transaction see all
// committed state from earlier writers.
func (r *ProviderRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked pgtype.UUID
	err := r.db.QueryRow(ctx, lockProviderSQL, pgconv.UUIDToPgtype(id)).Scan(&locked)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return infra.WrapRepoErr("provider not found", err, infra.KindNotFound)
		}
		return infra.WrapRepoErr("failed to lock provider", err)
	}
	return nil
}
