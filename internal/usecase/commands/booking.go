package commands

import (
	"context"
	"errors"
	"log/slog"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/provider"
	reqdto "studio-booking/internal/handler/dto/request"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/pkg/metrics"
	"studio-booking/internal/usecase/queries"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound        = errs.New("provider not found")
	ErrInvalidBooking          = errs.New("invalid booking request")
	ErrLeadTimeNotMet          = errs.New("lead time requirement not met")
	ErrOutsideWorkingHours     = errs.New("requested slot is outside working hours")
	ErrSlotConflict            = errs.New("slot already booked")
	ErrDuplicateRequest        = errs.New("idempotency key reused with a different slot")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrCancelNotAllowed        = errs.New("completed booking cannot be cancelled")
	ErrGuardTimeout            = errs.New("conflict guard timed out")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type CreateBookingResult struct {
	Booking    *queries.BookingView
	IsReplayed bool
}

// AvailabilityInvalidator drops cached availability after a write. Failures
// are logged, never surfaced: the cache TTL bounds staleness anyway.
type AvailabilityInvalidator interface {
	InvalidateProvider(ctx context.Context, providerID uuid.UUID) error
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, req reqdto.CreateBookingRequest, idempotencyKey *uuid.UUID) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (*queries.BookingView, error)
}

type bookingUseCaseImpl struct {
	uow            shared.UnitOfWork
	providers      queries.ProviderReads
	factory        *booking.Factory
	bookingQueries queries.BookingQueries
	invalidator    AvailabilityInvalidator
	clock          clock.Clock
	cfg            config.BookingConfig
}

func NewBookingUseCase(
	uow shared.UnitOfWork,
	providers queries.ProviderReads,
	factory *booking.Factory,
	bookingQueries queries.BookingQueries,
	invalidator AvailabilityInvalidator,
	clock clock.Clock,
	cfg config.BookingConfig,
) BookingCommands {
	return &bookingUseCaseImpl{
		uow:            uow,
		providers:      providers,
		factory:        factory,
		bookingQueries: bookingQueries,
		invalidator:    invalidator,
		clock:          clock,
		cfg:            cfg,
	}
}

func (u *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	req reqdto.CreateBookingRequest,
	idempotencyKey *uuid.UUID,
) (*CreateBookingResult, error) {
	p, err := u.loadProvider(ctx, req.ProviderID)
	if err != nil {
		metrics.BookingOutcomes.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	bk, err := u.factory.CreateBooking(p, req.Start, req.DurationMinutes, req.TrimmedClientRef(), idempotencyKey)
	if err != nil {
		metrics.BookingOutcomes.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, mapFactoryError(err)
	}

	resultID, replayed, err := u.runConflictGuard(ctx, p, bk)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotConflict), errors.Is(err, ErrDuplicateRequest):
			metrics.BookingOutcomes.WithLabelValues(metrics.OutcomeConflict).Inc()
		default:
			metrics.BookingOutcomes.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	if !replayed {
		u.invalidateAvailability(ctx, p.ID())
		metrics.BookingOutcomes.WithLabelValues(metrics.OutcomeConfirmed).Inc()
	} else {
		metrics.BookingOutcomes.WithLabelValues(metrics.OutcomeReplayed).Inc()
	}

	// Read-after-write: serve the full view from the read store
	view, err := u.bookingQueries.GetByID(ctx, resultID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return &CreateBookingResult{
		Booking:    view,
		IsReplayed: replayed,
	}, nil
}

// runConflictGuard is the only path that creates commitments. Inside one
// bounded transaction it takes the provider row lock, replays idempotent
// retries, re-derives the busy set from committed state, and inserts. The
// exclusion constraint in the schema backstops anything that slips past.
func (u *bookingUseCaseImpl) runConflictGuard(
	ctx context.Context,
	p *provider.Provider,
	bk *booking.Booking,
) (uuid.UUID, bool, error) {
	gctx, cancel := context.WithTimeout(ctx, u.cfg.GuardTimeout)
	defer cancel()

	started := u.clock.Now()
	var (
		resultID uuid.UUID
		replayed bool
	)
	err := u.uow.Within(gctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Providers().Lock(ctx, p.ID()); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrProviderNotFound)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		existing, err := tx.Reads().CommitmentBySourceID(ctx, p.ID(), bk.SourceID())
		if err == nil {
			if existing.Blocks() && existing.Span().Equal(bk.Span()) {
				resultID = existing.ID()
				replayed = true
				return nil
			}
			return ErrDuplicateRequest
		}
		if !infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := u.checkOverlap(ctx, tx, p, bk); err != nil {
			return err
		}

		id, err := tx.Commitments().Create(ctx, bk.ToCommitment(u.clock.Now()))
		if err != nil {
			switch {
			case infra.IsKind(err, infra.KindDuplicateKey):
				return errs.Mark(err, ErrDuplicateRequest)
			case infra.IsKind(err, infra.KindConflict):
				return errs.Mark(err, ErrSlotConflict)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		resultID = id
		return nil
	})
	metrics.GuardDuration.Observe(u.clock.Now().Sub(started).Seconds())
	if err != nil {
		if gctx.Err() != nil && ctx.Err() == nil {
			return uuid.Nil, false, errs.Mark(err, ErrGuardTimeout)
		}
		return uuid.Nil, false, err
	}
	return resultID, replayed, nil
}

// checkOverlap re-derives the busy set from state committed before the lock
// was granted, so an earlier writer's insert is always visible here.
func (u *bookingUseCaseImpl) checkOverlap(
	ctx context.Context,
	tx shared.Tx,
	p *provider.Provider,
	bk *booking.Booking,
) error {
	blocking, err := tx.Reads().BlockingCommitmentsInRange(ctx, p.ID(), bk.Span())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	rules, err := tx.Reads().RecurringRulesByProvider(ctx, p.ID())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	localStart := bk.Span().Start().In(p.Location())
	busy := commitment.NormalizeDay(blocking, rules, localStart.Year(), localStart.Month(), localStart.Day(), p.Location())
	for _, iv := range busy {
		if iv.Overlaps(bk.Span()) {
			return ErrSlotConflict
		}
	}
	return nil
}

func (u *bookingUseCaseImpl) CancelBooking(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var providerID uuid.UUID
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		c, err := tx.Reads().CommitmentByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, ErrBookingNotFound)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if c.Kind() != commitment.KindAppointment {
			return ErrBookingNotFound
		}
		providerID = c.ProviderID()

		switch c.Status() {
		case commitment.StatusCancelled:
			// Cancelling twice is a no-op, not an error.
			return nil
		case commitment.StatusCompleted:
			return ErrCancelNotAllowed
		}

		return tx.Commitments().UpdateStatus(ctx, id, commitment.StatusCancelled, u.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	u.invalidateAvailability(ctx, providerID)

	view, err := u.bookingQueries.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (u *bookingUseCaseImpl) loadProvider(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	p, err := u.providers.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrProviderNotFound)
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return p, nil
}

func (u *bookingUseCaseImpl) invalidateAvailability(ctx context.Context, providerID uuid.UUID) {
	if err := u.invalidator.InvalidateProvider(ctx, providerID); err != nil {
		slog.Warn("availability cache invalidation failed",
			"provider_id", providerID,
			"error", err.Error())
	}
}

func mapFactoryError(err error) error {
	switch {
	case errors.Is(err, booking.ErrLeadTimeNotMet):
		return errs.Mark(err, ErrLeadTimeNotMet)
	case errors.Is(err, booking.ErrOutsideWorkingHours):
		return errs.Mark(err, ErrOutsideWorkingHours)
	default:
		return errs.Mark(err, ErrInvalidBooking)
	}
}
