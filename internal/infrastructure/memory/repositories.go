package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
)

var (
	_ repository.StockRepository          = (*StockRepo)(nil)
	_ repository.MovementRecordRepository = (*MovementRecordRepo)(nil)
)

// StockRepo implementación en memoria de StockRepository.
type StockRepo struct {
	v view
}

// Get devuelve (nil, nil) si la fila no existe.
func (r *StockRepo) Get(_ context.Context, warehouseID, productID string) (*entity.Stock, error) {
	st, ok := r.v.getStock(stockKey{warehouseID, productID})
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// GetForUpdate crea la fila con 0 si no existe. El bloqueo lo da la tx (mutex del Store).
func (r *StockRepo) GetForUpdate(_ context.Context, warehouseID, productID string) (*entity.Stock, error) {
	k := stockKey{warehouseID, productID}
	st, ok := r.v.getStock(k)
	if !ok {
		st = entity.Stock{WarehouseID: warehouseID, ProductID: productID}
		r.v.putStock(st)
	}
	return &st, nil
}

// Save guarda la fila (insert o update).
func (r *StockRepo) Save(_ context.Context, stock *entity.Stock) error {
	r.v.putStock(*stock)
	return nil
}

// ListByWarehouse lista las filas de la bodega ordenadas por product_id; limit <= 0 sin tope.
func (r *StockRepo) ListByWarehouse(_ context.Context, warehouseID string, limit, offset int) ([]*entity.Stock, error) {
	all := r.v.listStock(warehouseID)
	if offset >= len(all) {
		return []*entity.Stock{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*entity.Stock, 0, end-offset)
	for i := offset; i < end; i++ {
		st := all[i]
		out = append(out, &st)
	}
	return out, nil
}

// MovementRecordRepo implementación en memoria de MovementRecordRepository.
type MovementRecordRepo struct {
	v view
}

// Append asigna ID y Seq al registro. Una DeliveryKey repetida devuelve domain.ErrDuplicate.
func (r *MovementRecordRepo) Append(_ context.Context, record *entity.MovementRecord) error {
	return r.v.appendRecord(record)
}

// ListByMovementID devuelve los registros ordenados por timestamp y luego por Seq.
func (r *MovementRecordRepo) ListByMovementID(_ context.Context, movementID string) ([]*entity.MovementRecord, error) {
	records := r.v.recordsOf(movementID)
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].Seq < records[j].Seq
	})
	out := make([]*entity.MovementRecord, 0, len(records))
	for i := range records {
		out = append(out, &records[i])
	}
	return out, nil
}
