package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

// ReconcileUseCase aplica eventos de movimiento al ledger de stock y los registra,
// todo dentro de una única transacción con la fila del ledger bloqueada (SELECT FOR UPDATE).
// Es el único escritor del ledger y del log de movimientos.
type ReconcileUseCase struct {
	txRunner TxRunner
	cache    MovementCache
	now      func() time.Time
	log      *logger.Logger
}

// NewReconcileUseCase construye el caso de uso. cache puede ser nil.
func NewReconcileUseCase(txRunner TxRunner, cache MovementCache) *ReconcileUseCase {
	return &ReconcileUseCase{
		txRunner: txRunner,
		cache:    cache,
		now:      time.Now,
		log:      logger.Nop(),
	}
}

// WithClock reemplaza el reloj usado para last_updated y created_at.
func (uc *ReconcileUseCase) WithClock(now func() time.Time) *ReconcileUseCase {
	uc.now = now
	return uc
}

// WithLogger asigna el logger para fallos de la caché.
func (uc *ReconcileUseCase) WithLogger(log *logger.Logger) *ReconcileUseCase {
	uc.log = log
	return uc
}

// Apply bloquea (o crea con 0) la fila del ledger, suma en arrival, resta en departure y
// añade el registro del movimiento. Una salida mayor que el disponible devuelve
// *domain.InsufficientStockError y no deja ninguna mutación: ni ledger ni registro.
func (uc *ReconcileUseCase) Apply(ctx context.Context, ev entity.MovementEvent) (*entity.MovementRecord, error) {
	if err := checkEvent(ev); err != nil {
		return nil, err
	}
	now := uc.now().UTC()

	var record *entity.MovementRecord
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		recordRepo repository.MovementRecordRepository,
	) error {
		stock, err := stockRepo.GetForUpdate(ctx, ev.WarehouseID, ev.ProductID)
		if err != nil {
			return err
		}
		switch ev.EventType {
		case entity.EventTypeArrival:
			stock.Quantity += ev.Quantity
		case entity.EventTypeDeparture:
			if stock.Quantity < ev.Quantity {
				return &domain.InsufficientStockError{
					WarehouseID: ev.WarehouseID,
					ProductID:   ev.ProductID,
					Requested:   ev.Quantity,
					Available:   stock.Quantity,
				}
			}
			stock.Quantity -= ev.Quantity
		}
		stock.LastUpdated = now
		if err := stockRepo.Save(ctx, stock); err != nil {
			return err
		}

		rec := &entity.MovementRecord{
			MovementID:      ev.MovementID,
			WarehouseID:     ev.WarehouseID,
			ProductID:       ev.ProductID,
			EventType:       ev.EventType,
			Quantity:        ev.Quantity,
			Timestamp:       ev.Timestamp.UTC(),
			SourceWarehouse: ev.SourceWarehouse,
			DeliveryKey:     ev.DeliveryKey,
			CreatedAt:       now,
		}
		if err := recordRepo.Append(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		uc.refreshView(ctx, ev.MovementID)
	}
	return record, nil
}

// refreshView recorrelaciona el movimiento tras el commit y guarda la vista con su versión.
// Si no se puede recalcular o guardar, borra la entrada para no servir una vista anterior.
func (uc *ReconcileUseCase) refreshView(ctx context.Context, movementID string) {
	var records []*entity.MovementRecord
	err := uc.txRunner.Run(ctx, func(_ repository.StockRepository, recordRepo repository.MovementRecordRepository) error {
		var err error
		records, err = recordRepo.ListByMovementID(ctx, movementID)
		return err
	})
	if err == nil {
		err = storeView(ctx, uc.cache, movementID, records)
	}
	if err == nil {
		return
	}
	uc.log.Warn().Err(err).Str("movement_id", movementID).Msg("no se pudo refrescar la vista del movimiento en caché")
	if err := uc.cache.Invalidate(ctx, movementID); err != nil {
		uc.log.Error().Err(err).Str("movement_id", movementID).Msg("no se pudo invalidar la vista del movimiento en caché")
	}
}

func storeView(ctx context.Context, cache MovementCache, movementID string, records []*entity.MovementRecord) error {
	view, err := inventory.Correlate(movementID, records)
	if err != nil {
		return err
	}
	return cache.Set(ctx, view, int64(len(records)))
}

// checkEvent repite las invariantes del evento para llamadas que no pasan por ParseMovementMessage.
func checkEvent(ev entity.MovementEvent) error {
	switch {
	case ev.MovementID == "":
		return &domain.MalformedMessageError{Field: "movement_id", Reason: "requerido"}
	case ev.WarehouseID == "":
		return &domain.MalformedMessageError{Field: "warehouse_id", Reason: "requerido"}
	case ev.ProductID == "":
		return &domain.MalformedMessageError{Field: "product_id", Reason: "requerido"}
	case ev.Quantity <= 0:
		return &domain.MalformedMessageError{Field: "quantity", Reason: "debe ser mayor que 0"}
	case !entity.IsValidEventType(ev.EventType):
		return &domain.MalformedMessageError{Field: "event", Reason: "debe ser arrival o departure"}
	case ev.Timestamp.IsZero():
		return &domain.MalformedMessageError{Field: "timestamp", Reason: "requerido"}
	}
	return nil
}
