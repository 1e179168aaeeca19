package readstore

import (
	"context"
	"time"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/provider"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getProviderByIDSQL = `
SELECT id, name, timezone, granularity_minutes, lead_time_minutes
FROM providers
WHERE id = $1`

const getProviderHoursSQL = `
SELECT weekday, start_minute, end_minute
FROM provider_hours
WHERE provider_id = $1
ORDER BY weekday`

const getRecurringBlocksSQL = `
SELECT id, provider_id, weekday, start_minute, end_minute
FROM recurring_blocks
WHERE provider_id = $1
ORDER BY weekday, start_minute`

type ProviderReadStore struct {
	db db.DBTX
}

func NewProviderReadStore(db db.DBTX) *ProviderReadStore {
	return &ProviderReadStore{db: db}
}

// FindByID reconstructs the provider aggregate: base row plus weekly hours.
func (r *ProviderReadStore) FindByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	var (
		rowID       pgtype.UUID
		name        string
		timezone    string
		granularity int32
		leadTime    int32
	)
	err := r.db.QueryRow(ctx, getProviderByIDSQL, pgconv.UUIDToPgtype(id)).
		Scan(&rowID, &name, &timezone, &granularity, &leadTime)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("provider not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find provider by ID", err)
	}

	hours, err := r.findHours(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := provider.NewProvider(id, name, timezone, hours, int(granularity), int(leadTime))
	if err != nil {
		return nil, infra.WrapRepoErr("invalid provider row", err)
	}
	return p, nil
}

func (r *ProviderReadStore) findHours(ctx context.Context, providerID uuid.UUID) ([]provider.WorkingHours, error) {
	rows, err := r.db.Query(ctx, getProviderHoursSQL, pgconv.UUIDToPgtype(providerID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find provider hours", err)
	}
	defer rows.Close()

	var result []provider.WorkingHours
	for rows.Next() {
		var weekday, startMinute, endMinute int32
		if err := rows.Scan(&weekday, &startMinute, &endMinute); err != nil {
			return nil, infra.WrapRepoErr("failed to scan provider hours row", err)
		}
		wh, err := provider.NewWorkingHours(time.Weekday(weekday), int(startMinute), int(endMinute))
		if err != nil {
			return nil, infra.WrapRepoErr("invalid provider hours row", err)
		}
		result = append(result, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate provider hours", err)
	}
	return result, nil
}

// RecurringRules loads the provider's weekly unavailability patterns.
func (r *ProviderReadStore) RecurringRules(ctx context.Context, providerID uuid.UUID) ([]commitment.RecurringRule, error) {
	rows, err := r.db.Query(ctx, getRecurringBlocksSQL, pgconv.UUIDToPgtype(providerID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find recurring blocks", err)
	}
	defer rows.Close()

	var result []commitment.RecurringRule
	for rows.Next() {
		var (
			id, pid                       pgtype.UUID
			weekday, startMinute, endMinute int32
		)
		if err := rows.Scan(&id, &pid, &weekday, &startMinute, &endMinute); err != nil {
			return nil, infra.WrapRepoErr("failed to scan recurring block row", err)
		}
		rule, err := commitment.NewRecurringRule(
			uuid.UUID(id.Bytes),
			uuid.UUID(pid.Bytes),
			time.Weekday(weekday),
			int(startMinute),
			int(endMinute),
		)
		if err != nil {
			return nil, infra.WrapRepoErr("invalid recurring block row", err)
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate recurring blocks", err)
	}
	return result, nil
}
