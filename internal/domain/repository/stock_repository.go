package repository

import (
	"context"

	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por bodega+producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve (nil, nil) si no existe fila para el par.
	Get(ctx context.Context, warehouseID, productID string) (*entity.Stock, error)
	// GetForUpdate crea la fila con cantidad 0 si no existe y la bloquea hasta el fin de la tx.
	GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.Stock, error)
	Save(ctx context.Context, stock *entity.Stock) error
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.Stock, error)
}
