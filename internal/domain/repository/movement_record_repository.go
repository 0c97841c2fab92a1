package repository

import (
	"context"

	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
)

// MovementRecordRepository define el puerto de persistencia del log de movimientos.
type MovementRecordRepository interface {
	// Append asigna ID y Seq al registro. Devuelve domain.ErrDuplicate si DeliveryKey ya existe.
	Append(ctx context.Context, record *entity.MovementRecord) error
	// ListByMovementID devuelve los registros ordenados por (timestamp, seq) ascendente.
	ListByMovementID(ctx context.Context, movementID string) ([]*entity.MovementRecord, error)
}
