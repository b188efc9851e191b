package repository

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/campuskit/reservas/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repositories over one pool and provides the per-resource
// unit of work the availability check depends on.
type Store struct {
	pool         *pgxpool.Pool
	resources    *ResourceRepository
	reservations *ReservationRepository
	history      *HistoryRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:         pool,
		resources:    NewResourceRepository(pool),
		reservations: NewReservationRepository(pool),
		history:      NewHistoryRepository(pool),
	}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Resources() *ResourceRepository {
	return s.resources
}

func (s *Store) Reservations() *ReservationRepository {
	return s.reservations
}

func (s *Store) History() *HistoryRepository {
	return s.history
}

// WithResourceLock runs fn inside a transaction holding the advisory lock for
// the resource. All repository calls made through the returned context join
// the transaction, so the conflict scan and the write it gates commit as one
// atomic unit. Two concurrent bookings on the same resource serialize here;
// bookings on different resources do not contend.
func (s *Store) WithResourceLock(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, resourceLockKey(resourceID)); err != nil {
		return fmt.Errorf("acquire resource lock: %w", err)
	}

	if err := fn(base.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// resourceLockKey maps a resource id onto the bigint space of postgres
// advisory locks. The lock is released automatically at transaction end.
func resourceLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(id[:])
	return int64(h.Sum64())
}
