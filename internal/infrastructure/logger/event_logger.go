package logger

import (
	"context"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type OrderEventLogger interface {
	LogEvent(ctx context.Context, event domain.DomainEvent) error
	History(ctx context.Context, orderID string) ([]domain.DomainEvent, error)
}

// PGOrderEventLogger keeps every domain event in an append-only table so an
// order's history can be reviewed during disputes.
type PGOrderEventLogger struct {
	db *gorm.DB
}

func NewPGOrderEventLogger(db *gorm.DB) *PGOrderEventLogger {
	return &PGOrderEventLogger{db: db}
}

func (l *PGOrderEventLogger) LogEvent(ctx context.Context, event domain.DomainEvent) error {
	return l.db.WithContext(ctx).Create(&models.EventLogModel{
		Type:       string(event.Type),
		OrderID:    event.OrderID,
		DisputeID:  event.DisputeID,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      event.Actor,
		OccurredAt: event.OccurredAt,
	}).Error
}

func (l *PGOrderEventLogger) History(ctx context.Context, orderID string) ([]domain.DomainEvent, error) {
	var rows []models.EventLogModel
	if err := l.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]domain.DomainEvent, len(rows))
	for i, row := range rows {
		events[i] = domain.DomainEvent{
			Type:       domain.EventType(row.Type),
			OrderID:    row.OrderID,
			DisputeID:  row.DisputeID,
			FromStatus: domain.OrderStatus(row.FromStatus),
			ToStatus:   domain.OrderStatus(row.ToStatus),
			Actor:      row.Actor,
			OccurredAt: row.OccurredAt,
		}
	}
	return events, nil
}
