package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/grainledger/grainledger/internal/movement"
	"github.com/grainledger/grainledger/internal/shared"
	"github.com/grainledger/grainledger/internal/stock"
)

// RepositoryPort abstracts transactional repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations one approval cascade needs. Every
// method runs on the same transaction; state reads take row locks so that
// concurrent approvals touching the same sub-location serialize.
type TxRepository interface {
	GetMovementForUpdate(ctx context.Context, id int64) (movement.Movement, error)
	GetStateForUpdate(ctx context.Context, subLocationID int64) (stock.State, error)
	UpdateState(ctx context.Context, state stock.State) error
	MarkApproved(ctx context.Context, id int64, actorID int64, at time.Time, rate float64) error
	MarkRejected(ctx context.Context, id int64, actorID int64, at time.Time, note string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// InvalidatorPort invalidates derived state caches after a commit.
type InvalidatorPort interface {
	Invalidate(ctx context.Context) error
}

// Service drives the pending -> approved/rejected workflow. On approval of a
// stock-affecting movement it snapshots the source rate, updates both
// location states and marks the movement, all inside one transaction.
type Service struct {
	repo        RepositoryPort
	approvals   *shared.ApprovalRecorder
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	invalidator InvalidatorPort
	maxRetries  int
	retryDelay  time.Duration
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewService constructs the approval service. approvals, audit, idempotency
// and invalidator may be nil.
func NewService(repo RepositoryPort, approvals *shared.ApprovalRecorder, audit AuditPort, idem *shared.IdempotencyStore, invalidator InvalidatorPort, cfg ServiceConfig) *Service {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return &Service{
		repo:        repo,
		approvals:   approvals,
		audit:       audit,
		idempotency: idem,
		invalidator: invalidator,
		maxRetries:  retries,
		retryDelay:  delay,
	}
}

// Approve decides a single pending movement. The cascade (snapshot source
// rate, recalculate both locations, mark approved) commits atomically or not
// at all.
func (s *Service) Approve(ctx context.Context, movementID int64, actor shared.Actor) Result {
	result := s.approveOne(ctx, movementID, actor)
	if result.OK() && s.invalidator != nil {
		_ = s.invalidator.Invalidate(ctx)
	}
	return result
}

// Reject terminally rejects a pending movement. No location state changes.
func (s *Service) Reject(ctx context.Context, movementID int64, actor shared.Actor, note string) Result {
	now := time.Now().UTC()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMovementForUpdate(ctx, movementID)
		if err != nil {
			return err
		}
		if m.Status != movement.StatusPending {
			return movement.ErrInvalidState
		}
		return tx.MarkRejected(ctx, movementID, actor.ID, now, note)
	})
	if err != nil {
		return Result{MovementID: movementID, Err: err, Retryable: isRetryable(err)}
	}
	s.recordDecision(ctx, movementID, actor, shared.ApprovalReject, note)
	return Result{MovementID: movementID, Status: movement.StatusRejected}
}

// BulkApprove processes ids independently in request order. Each record's
// cascade is atomic; one record's failure does not roll back records already
// committed. With allOrNothing set the whole batch shares one transaction
// and fails together.
func (s *Service) BulkApprove(ctx context.Context, ids []int64, actor shared.Actor, allOrNothing bool) ([]Result, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	if allOrNothing {
		return s.bulkApproveAtomic(ctx, ids, actor)
	}
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		// early termination only between records, never inside a cascade
		if err := ctx.Err(); err != nil {
			results = append(results, Result{MovementID: id, Err: err, Retryable: true})
			continue
		}
		results = append(results, s.approveOne(ctx, id, actor))
	}
	if s.invalidator != nil {
		_ = s.invalidator.Invalidate(ctx)
	}
	return results, nil
}

func (s *Service) bulkApproveAtomic(ctx context.Context, ids []int64, actor shared.Actor) ([]Result, error) {
	now := time.Now().UTC()
	results := make([]Result, len(ids))
	err := s.withRetry(ctx, func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			for i, id := range ids {
				rate, err := s.cascade(ctx, tx, id, actor, now)
				if err != nil {
					return fmt.Errorf("approval: movement %d: %w", id, err)
				}
				results[i] = Result{MovementID: id, Status: movement.StatusApproved, SnapshotRate: rate}
			}
			return nil
		})
	})
	if err != nil {
		for i, id := range ids {
			results[i] = Result{MovementID: id, Err: err, Retryable: isRetryable(err)}
		}
		return results, nil
	}
	for _, r := range results {
		s.recordDecision(ctx, r.MovementID, actor, shared.ApprovalApprove, "")
	}
	if s.invalidator != nil {
		_ = s.invalidator.Invalidate(ctx)
	}
	return results, nil
}

func (s *Service) approveOne(ctx context.Context, movementID int64, actor shared.Actor) Result {
	key := fmt.Sprintf("APPROVE:%d", movementID)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "approval"); err != nil {
			return Result{MovementID: movementID, Err: err}
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	var snapshotRate float64
	err := s.withRetry(ctx, func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			rate, err := s.cascade(ctx, tx, movementID, actor, now)
			if err != nil {
				return err
			}
			snapshotRate = rate
			return nil
		})
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Result{MovementID: movementID, Err: err, Retryable: isRetryable(err)}
	}
	s.recordDecision(ctx, movementID, actor, shared.ApprovalApprove, "")
	return Result{MovementID: movementID, Status: movement.StatusApproved, SnapshotRate: snapshotRate}
}

// cascade performs the atomic approval steps for one movement on the given
// transaction. The returned rate is the one recorded on the movement: the
// purchase price for inflows, or the source rate snapshotted now for
// outflows, so later replays are deterministic regardless of how the source
// rate moves afterwards.
func (s *Service) cascade(ctx context.Context, tx TxRepository, movementID int64, actor shared.Actor, now time.Time) (float64, error) {
	m, err := tx.GetMovementForUpdate(ctx, movementID)
	if err != nil {
		return 0, err
	}
	if m.Status != movement.StatusPending {
		return 0, movement.ErrInvalidState
	}
	cls, err := movement.Classify(m)
	if err != nil {
		return 0, err
	}

	var src, dest stock.State
	// Lock in ascending sub-location order so concurrent transfers between
	// the same pair cannot deadlock.
	if cls.Outbound() && cls.Inbound() && cls.Dest < cls.Source {
		if dest, err = tx.GetStateForUpdate(ctx, cls.Dest); err != nil {
			return 0, err
		}
	}
	if cls.Outbound() {
		if src, err = tx.GetStateForUpdate(ctx, cls.Source); err != nil {
			return 0, err
		}
	}
	if cls.Inbound() && dest.SubLocationID == 0 {
		if dest, err = tx.GetStateForUpdate(ctx, cls.Dest); err != nil {
			return 0, err
		}
	}

	recordedRate := m.AcquisitionRate
	if cls.Outbound() {
		recordedRate = src.Rate
		src, err = src.Issue(m.Bags, m.NetWeight)
		if err != nil {
			return 0, fmt.Errorf("sub-location %d: %w", cls.Source, err)
		}
		src.UpdatedAt = now
		if err := tx.UpdateState(ctx, src); err != nil {
			return 0, err
		}
	}
	if cls.Inbound() {
		dest = dest.Receive(m.Bags, m.NetWeight, recordedRate)
		dest.UpdatedAt = now
		if err := tx.UpdateState(ctx, dest); err != nil {
			return 0, err
		}
	}

	if err := tx.MarkApproved(ctx, movementID, actor.ID, now, recordedRate); err != nil {
		return 0, err
	}
	return recordedRate, nil
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = fn()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
}

// MovementRef derives the stable approval-history reference for a movement.
func MovementRef(movementID int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("MOVEMENT:%d", movementID)))
}

// History lists the approval trail of a movement, oldest first.
func (s *Service) History(ctx context.Context, movementID int64) ([]shared.ApprovalLog, error) {
	return s.approvals.List(ctx, "MOVEMENT", MovementRef(movementID))
}

func (s *Service) recordDecision(ctx context.Context, movementID int64, actor shared.Actor, action shared.ApprovalAction, note string) {
	ref := MovementRef(movementID)
	if s.approvals != nil {
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module:    "MOVEMENT",
			RefID:     ref,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Action:    action,
			Note:      note,
		})
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   fmt.Sprintf("MOVEMENT_%s", action),
			Entity:   "movement",
			EntityID: fmt.Sprintf("%d", movementID),
			Meta:     map[string]any{"role": actor.Role},
		})
	}
}

func isSerializationFailure(err error) bool {
	if errors.Is(err, shared.ErrConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate) || errors.Is(err, shared.ErrConflict)
}
