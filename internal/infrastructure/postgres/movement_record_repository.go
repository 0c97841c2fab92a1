package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
)

var _ repository.MovementRecordRepository = (*MovementRecordRepo)(nil)

// MovementRecordRepo log append-only de eventos de movimiento sobre PostgreSQL.
type MovementRecordRepo struct {
	q Querier
}

// NewMovementRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRecordRepository(q Querier) *MovementRecordRepo {
	return &MovementRecordRepo{q: q}
}

// Append inserta el registro; seq lo asigna la secuencia de la tabla.
func (r *MovementRecordRepo) Append(ctx context.Context, record *entity.MovementRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	var deliveryKey *string
	if record.DeliveryKey != "" {
		deliveryKey = &record.DeliveryKey
	}
	query := `
		INSERT INTO warehouse_movements
			(id, movement_id, warehouse_id, product_id, event_type, quantity, timestamp, source_warehouse, delivery_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		record.ID, record.MovementID, record.WarehouseID, record.ProductID, record.EventType,
		record.Quantity, record.Timestamp, record.SourceWarehouse, deliveryKey, record.CreatedAt,
	).Scan(&record.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("append movement record %s: %w", record.DeliveryKey, domain.ErrDuplicate)
		}
		return fmt.Errorf("append movement record: %w", err)
	}
	return nil
}

// ListByMovementID devuelve los registros del movimiento ordenados por (timestamp, seq).
func (r *MovementRecordRepo) ListByMovementID(ctx context.Context, movementID string) ([]*entity.MovementRecord, error) {
	query := `
		SELECT id, seq, movement_id, warehouse_id, product_id, event_type, quantity, timestamp,
		       source_warehouse, delivery_key, created_at
		FROM warehouse_movements WHERE movement_id = $1
		ORDER BY timestamp, seq`
	rows, err := r.q.Query(ctx, query, movementID)
	if err != nil {
		return nil, fmt.Errorf("list movement records: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.MovementRecord, 0)
	for rows.Next() {
		var m entity.MovementRecord
		var deliveryKey *string
		if err := rows.Scan(
			&m.ID, &m.Seq, &m.MovementID, &m.WarehouseID, &m.ProductID, &m.EventType, &m.Quantity,
			&m.Timestamp, &m.SourceWarehouse, &deliveryKey, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement record: %w", err)
		}
		if deliveryKey != nil {
			m.DeliveryKey = *deliveryKey
		}
		m.Timestamp = m.Timestamp.UTC()
		m.CreatedAt = m.CreatedAt.UTC()
		list = append(list, &m)
	}
	return list, rows.Err()
}
