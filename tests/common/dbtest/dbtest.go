//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by *pgxpool.Pool and pgx.Tx.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateTestProvider inserts a provider open Monday through Friday
// 09:00-17:00 local time.
func CreateTestProvider(t *testing.T, db DBLike, name, timezone string, granularityMinutes, leadTimeMinutes int) uuid.UUID {
	t.Helper()

	providerID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO providers (id, name, timezone, granularity_minutes, lead_time_minutes) VALUES ($1, $2, $3, $4, $5)",
		providerID, name, timezone, granularityMinutes, leadTimeMinutes)
	require.NoError(t, err)

	for weekday := 1; weekday <= 5; weekday++ {
		SetWorkingHours(t, db, providerID, weekday, 9*60, 17*60)
	}
	return providerID
}

// SetWorkingHours upserts one weekday's window in local minutes from midnight.
func SetWorkingHours(t *testing.T, db DBLike, providerID uuid.UUID, weekday, startMinute, endMinute int) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO provider_hours (provider_id, weekday, start_minute, end_minute)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider_id, weekday) DO UPDATE SET start_minute = $3, end_minute = $4`,
		providerID, weekday, startMinute, endMinute)
	require.NoError(t, err)
}

func CreateRecurringBlock(t *testing.T, db DBLike, providerID uuid.UUID, weekday, startMinute, endMinute int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO recurring_blocks (id, provider_id, weekday, start_minute, end_minute) VALUES ($1, $2, $3, $4, $5)",
		id, providerID, weekday, startMinute, endMinute)
	require.NoError(t, err)
	return id
}

func CreateManualBlock(t *testing.T, db DBLike, providerID uuid.UUID, startsAt, endsAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO commitments (id, provider_id, kind, status, source_id, starts_at, ends_at, client_ref, created_at, updated_at)
		 VALUES ($1, $2, 'manual_block', 'scheduled', $3, $4, $5, '', now(), now())`,
		id, providerID, uuid.New(), startsAt, endsAt)
	require.NoError(t, err)
	return id
}

func CountCommitments(t *testing.T, db DBLike, providerID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM commitments WHERE provider_id = $1", providerID).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables between subtests
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var tbl string
			if err := rows.Scan(&tbl); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, tbl)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})

	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}
	return nil
}
