package readstore

import (
	"context"

	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/pkg/pgconv"
	"studio-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getBookingViewByIDSQL = `
SELECT c.id, c.provider_id, p.name, c.status, c.starts_at, c.ends_at,
       c.client_ref, c.created_at, c.updated_at
FROM commitments c
JOIN providers p ON p.id = c.provider_id
WHERE c.id = $1 AND c.kind = 'appointment'`

type BookingViewRepository struct {
	db db.DBTX
}

func NewBookingViewRepository(db db.DBTX) *BookingViewRepository {
	return &BookingViewRepository{db: db}
}

func (r *BookingViewRepository) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		rowID, providerID    pgtype.UUID
		providerName         string
		status, clientRef    string
		startsAt, endsAt     pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, getBookingViewByIDSQL, pgconv.UUIDToPgtype(id)).
		Scan(&rowID, &providerID, &providerName, &status, &startsAt, &endsAt,
			&clientRef, &createdAt, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}

	return &queries.BookingView{
		ID:           uuid.UUID(rowID.Bytes),
		ProviderID:   uuid.UUID(providerID.Bytes),
		ProviderName: providerName,
		Status:       status,
		StartsAt:     pgconv.TimeFromPgtype(startsAt),
		EndsAt:       pgconv.TimeFromPgtype(endsAt),
		ClientRef:    clientRef,
		CreatedAt:    pgconv.TimeFromPgtype(createdAt),
		UpdatedAt:    pgconv.TimeFromPgtype(updatedAt),
	}, nil
}
