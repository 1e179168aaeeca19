package readstore

import (
	"context"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/interval"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const commitmentColumns = `
id, provider_id, kind, status, source_id, starts_at, ends_at, client_ref, created_at, updated_at`

const getBlockingCommitmentsInRangeSQL = `
SELECT` + commitmentColumns + `
FROM commitments
WHERE provider_id = $1
  AND status <> 'cancelled'
  AND starts_at < $3
  AND ends_at > $2
ORDER BY starts_at`

const getCommitmentByIDSQL = `
SELECT` + commitmentColumns + `
FROM commitments
WHERE id = $1`

const getCommitmentBySourceIDSQL = `
SELECT` + commitmentColumns + `
FROM commitments
WHERE provider_id = $1 AND source_id = $2`

type CommitmentReadStore struct {
	db db.DBTX
}

func NewCommitmentReadStore(db db.DBTX) *CommitmentReadStore {
	return &CommitmentReadStore{db: db}
}

// FindBlockingInRange returns non-cancelled commitments overlapping the
// half-open UTC range. Touching commitments are excluded by the strict
// inequalities, matching interval overlap semantics.
func (r *CommitmentReadStore) FindBlockingInRange(ctx context.Context, providerID uuid.UUID, span interval.Interval) ([]*commitment.Commitment, error) {
	rows, err := r.db.Query(ctx, getBlockingCommitmentsInRangeSQL,
		pgconv.UUIDToPgtype(providerID),
		pgconv.TimeToPgtype(span.Start()),
		pgconv.TimeToPgtype(span.End()),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find commitments in range", err)
	}
	defer rows.Close()

	var result []*commitment.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate commitments", err)
	}
	return result, nil
}

func (r *CommitmentReadStore) FindByID(ctx context.Context, id uuid.UUID) (*commitment.Commitment, error) {
	row := r.db.QueryRow(ctx, getCommitmentByIDSQL, pgconv.UUIDToPgtype(id))
	c, err := scanCommitment(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("commitment not found", err, infra.KindNotFound)
		}
		return nil, err
	}
	return c, nil
}

// FindBySourceID resolves an idempotent replay: the commitment previously
// created for this provider and client-supplied source ID, if any.
func (r *CommitmentReadStore) FindBySourceID(ctx context.Context, providerID, sourceID uuid.UUID) (*commitment.Commitment, error) {
	row := r.db.QueryRow(ctx, getCommitmentBySourceIDSQL,
		pgconv.UUIDToPgtype(providerID),
		pgconv.UUIDToPgtype(sourceID),
	)
	c, err := scanCommitment(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("commitment not found", err, infra.KindNotFound)
		}
		return nil, err
	}
	return c, nil
}

func scanCommitment(row pgx.Row) (*commitment.Commitment, error) {
	var (
		id, providerID, sourceID pgtype.UUID
		kind, status, clientRef  string
		startsAt, endsAt         pgtype.Timestamptz
		createdAt, updatedAt     pgtype.Timestamptz
	)
	err := row.Scan(&id, &providerID, &kind, &status, &sourceID,
		&startsAt, &endsAt, &clientRef, &createdAt, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, err
		}
		return nil, infra.WrapRepoErr("failed to scan commitment row", err)
	}

	span, err := interval.New(pgconv.TimeFromPgtype(startsAt), pgconv.TimeFromPgtype(endsAt))
	if err != nil {
		return nil, infra.WrapRepoErr("invalid commitment interval row", err)
	}

	return commitment.Reconstruct(
		uuid.UUID(id.Bytes),
		uuid.UUID(providerID.Bytes),
		commitment.Kind(kind),
		commitment.Status(status),
		uuid.UUID(sourceID.Bytes),
		span,
		clientRef,
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}
