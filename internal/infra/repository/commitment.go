package repository

import (
	"context"
	"errors"
	"time"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	pgErrCodeUniqueViolation    = "23505"
	pgErrCodeExclusionViolation = "23P01"
)

const createCommitmentSQL = `
INSERT INTO commitments (id, provider_id, kind, status, source_id, starts_at, ends_at, client_ref, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

const updateCommitmentStatusSQL = `
UPDATE commitments
SET status = $2, updated_at = $3
WHERE id = $1`

type CommitmentRepository struct {
	db db.DBTX
}

func NewCommitmentRepository(db db.DBTX) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

// Create inserts a commitment row. A unique violation on the source key maps
// to KindDuplicateKey (idempotent retry of a booking request); an exclusion
// violation means the overlap backstop fired and maps to KindConflict.
func (r *CommitmentRepository) Create(ctx context.Context, c *commitment.Commitment) (uuid.UUID, error) {
	var id pgtype.UUID
	err := r.db.QueryRow(ctx, createCommitmentSQL,
		pgconv.UUIDToPgtype(c.ID()),
		pgconv.UUIDToPgtype(c.ProviderID()),
		c.Kind().String(),
		c.Status().String(),
		pgconv.UUIDToPgtype(c.SourceID()),
		pgconv.TimeToPgtype(c.Span().Start()),
		pgconv.TimeToPgtype(c.Span().End()),
		c.ClientRef(),
		pgconv.TimeToPgtype(c.CreatedAt()),
		pgconv.TimeToPgtype(c.UpdatedAt()),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgErrCodeUniqueViolation:
				return uuid.Nil, infra.WrapRepoErr("commitment source already recorded", err, infra.KindDuplicateKey)
			case pgErrCodeExclusionViolation:
				return uuid.Nil, infra.WrapRepoErr("commitment overlaps existing commitment", err, infra.KindConflict)
			}
		}
		return uuid.Nil, infra.WrapRepoErr("failed to create commitment", err)
	}
	return uuid.UUID(id.Bytes), nil
}

func (r *CommitmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status commitment.Status, now time.Time) error {
	tag, err := r.db.Exec(ctx, updateCommitmentStatusSQL,
		pgconv.UUIDToPgtype(id),
		status.String(),
		pgconv.TimeToPgtype(now),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update commitment status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("commitment not found", nil, infra.KindNotFound)
	}
	return nil
}
