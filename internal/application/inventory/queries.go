package inventory

import (
	"context"

	"github.com/jhoicas/warehouse-monitoring/internal/application/dto"
	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

// StockQueryUseCase lecturas del ledger de stock (solo lectura).
type StockQueryUseCase struct {
	stockRepo repository.StockRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(stockRepo repository.StockRepository) *StockQueryUseCase {
	return &StockQueryUseCase{stockRepo: stockRepo}
}

// GetStock devuelve el stock actual del par bodega+producto o *domain.NotFoundError.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, warehouseID, productID string) (*dto.StockResponse, error) {
	stock, err := uc.stockRepo.Get(ctx, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, &domain.NotFoundError{Resource: "stock", Key: warehouseID + "/" + productID}
	}
	out := toStockResponse(stock)
	return &out, nil
}

// ListByWarehouse lista las filas del ledger de una bodega, paginadas.
func (uc *StockQueryUseCase) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) (*dto.StockListResponse, error) {
	list, err := uc.stockRepo.ListByWarehouse(ctx, warehouseID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, toStockResponse(s))
	}
	return &dto.StockListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// MovementQueryUseCase reconstruye la vista de un movimiento a partir de su log.
type MovementQueryUseCase struct {
	recordRepo repository.MovementRecordRepository
	cache      MovementCache
	log        *logger.Logger
}

// NewMovementQueryUseCase construye el caso de uso. cache puede ser nil.
func NewMovementQueryUseCase(recordRepo repository.MovementRecordRepository, cache MovementCache) *MovementQueryUseCase {
	return &MovementQueryUseCase{recordRepo: recordRepo, cache: cache, log: logger.Nop()}
}

// WithLogger asigna el logger para fallos de la caché.
func (uc *MovementQueryUseCase) WithLogger(log *logger.Logger) *MovementQueryUseCase {
	uc.log = log
	return uc
}

// GetMovement correlaciona los registros del movimiento. Devuelve *domain.NotFoundError
// si no hay registros y *domain.NoValidEventsError si ninguno es arrival/departure.
func (uc *MovementQueryUseCase) GetMovement(ctx context.Context, movementID string) (*dto.MovementResponse, error) {
	if uc.cache != nil {
		view, err := uc.cache.Get(ctx, movementID)
		if err != nil {
			uc.log.Warn().Err(err).Str("movement_id", movementID).Msg("caché de movimientos no disponible; se lee del store")
		} else if view != nil {
			return toMovementResponse(view), nil
		}
	}

	records, err := uc.recordRepo.ListByMovementID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	view, err := inventory.Correlate(movementID, records)
	if err != nil {
		return nil, err
	}
	// Set no pisa una versión más nueva escrita por un Apply concurrente.
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, view, int64(len(records))); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", movementID).Msg("no se pudo guardar la vista del movimiento en caché")
		}
	}
	return toMovementResponse(view), nil
}

func toStockResponse(s *entity.Stock) dto.StockResponse {
	return dto.StockResponse{
		WarehouseID: s.WarehouseID,
		ProductID:   s.ProductID,
		Quantity:    s.Quantity,
		LastUpdated: s.LastUpdated,
	}
}

func toMovementResponse(v *entity.PairedTransfer) *dto.MovementResponse {
	return &dto.MovementResponse{
		MovementID:         v.MovementID,
		DepartureWarehouse: v.DepartureWarehouse,
		ArrivalWarehouse:   v.ArrivalWarehouse,
		ProductID:          v.ProductID,
		Quantity:           v.Quantity,
		DepartureTime:      v.DepartureTime,
		ArrivalTime:        v.ArrivalTime,
		TransitDuration:    v.TransitDuration,
		QuantityDifference: v.QuantityDifference,
	}
}
