package service

import (
	"context"

	"github.com/campuskit/reservas/internal/model"
	"go.uber.org/zap"
)

// Notifier receives "workflow state changed" events. The notification
// collaborator turns them into user-facing messages; this core only emits
// the reservation snapshot and the history entry describing the change.
type Notifier interface {
	ReservationChanged(ctx context.Context, res *model.Reservation, entry *model.HistoryEntry)
}

// LogNotifier is the default sink: it logs the event and drops it.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ReservationChanged(_ context.Context, res *model.Reservation, entry *model.HistoryEntry) {
	n.logger.Info("Reservation changed",
		zap.String("reservation_id", res.ID.String()),
		zap.String("resource_id", res.ResourceID.String()),
		zap.String("state", string(res.State)),
		zap.String("action", string(entry.Action)),
	)
}
