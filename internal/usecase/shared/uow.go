package shared

import (
	"context"
	"time"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/interval"
	"studio-booking/internal/domain/provider"
	"studio-booking/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
}

type Tx interface {
	Providers() ProviderRepository
	Commitments() CommitmentRepository
	Reads() CommandReads
	DB() db.DBTX
}

type ProviderRepository interface {
	// Lock acquires the provider row lock that serializes conflict checks
	// for a single provider. Returns KindNotFound for unknown providers.
	Lock(ctx context.Context, id uuid.UUID) error
}

type CommitmentRepository interface {
	Create(ctx context.Context, c *commitment.Commitment) (uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status commitment.Status, now time.Time) error
}

type CommandReads interface {
	ProviderByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
	RecurringRulesByProvider(ctx context.Context, providerID uuid.UUID) ([]commitment.RecurringRule, error)
	BlockingCommitmentsInRange(ctx context.Context, providerID uuid.UUID, span interval.Interval) ([]*commitment.Commitment, error)
	CommitmentBySourceID(ctx context.Context, providerID, sourceID uuid.UUID) (*commitment.Commitment, error)
	CommitmentByID(ctx context.Context, id uuid.UUID) (*commitment.Commitment, error)
}
