package repository

import (
	"context"
	"fmt"

	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository is the append-only audit trail. Rows are never updated
// or deleted.
type HistoryRepository struct {
	*base.Repository
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{Repository: base.NewRepository(pool)}
}

// Append inserts one audit entry for a reservation transition.
func (r *HistoryRepository) Append(ctx context.Context, entry *model.HistoryEntry) error {
	query := `
		INSERT INTO reservation_history (reservation_id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp
	`

	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	err := r.Q(ctx).QueryRow(
		ctx, query,
		entry.ReservationID,
		entry.ActorID,
		entry.Action,
		details,
	).Scan(&entry.ID, &entry.Timestamp)

	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}

	return nil
}

// ForReservation returns a reservation's audit trail, most recent first.
func (r *HistoryRepository) ForReservation(ctx context.Context, reservationID uuid.UUID) ([]*model.HistoryEntry, error) {
	query := `
		SELECT id, reservation_id, actor_id, action, details, timestamp
		FROM reservation_history
		WHERE reservation_id = $1
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := r.Q(ctx).Query(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("get reservation history: %w", err)
	}
	defer rows.Close()

	var entries []*model.HistoryEntry
	for rows.Next() {
		var entry model.HistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.ReservationID,
			&entry.ActorID,
			&entry.Action,
			&entry.Details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
