package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una bodega; (nil, nil) si no hay fila.
func (r *StockRepo) Get(ctx context.Context, warehouseID, productID string) (*entity.Stock, error) {
	query := `
		SELECT warehouse_id, product_id, quantity, last_updated
		FROM warehouse_stocks WHERE warehouse_id = $1 AND product_id = $2`
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(
		&s.WarehouseID, &s.ProductID, &s.Quantity, &s.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	s.LastUpdated = s.LastUpdated.UTC()
	return &s, nil
}

// GetForUpdate crea la fila con 0 si no existe y la bloquea (SELECT FOR UPDATE).
// Debe llamarse dentro de una tx: el rollback deshace también la fila creada.
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO warehouse_stocks (warehouse_id, product_id, quantity, last_updated)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (warehouse_id, product_id) DO NOTHING`,
		warehouseID, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}

	query := `
		SELECT warehouse_id, product_id, quantity, last_updated
		FROM warehouse_stocks WHERE warehouse_id = $1 AND product_id = $2
		FOR UPDATE`
	var s entity.Stock
	err = r.q.QueryRow(ctx, query, warehouseID, productID).Scan(
		&s.WarehouseID, &s.ProductID, &s.Quantity, &s.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Save persiste cantidad y last_updated del par bodega+producto.
func (r *StockRepo) Save(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO warehouse_stocks (warehouse_id, product_id, quantity, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (warehouse_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, last_updated = EXCLUDED.last_updated`
	_, err := r.q.Exec(ctx, query, stock.WarehouseID, stock.ProductID, stock.Quantity, stock.LastUpdated)
	if err != nil {
		return fmt.Errorf("save stock: %w", err)
	}
	return nil
}

// ListByWarehouse lista el stock de una bodega ordenado por producto.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.Stock, error) {
	query := `
		SELECT warehouse_id, product_id, quantity, last_updated
		FROM warehouse_stocks WHERE warehouse_id = $1
		ORDER BY product_id`
	args := []any{warehouseID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += ` OFFSET $2`
		args = append(args, offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Stock, 0)
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.WarehouseID, &s.ProductID, &s.Quantity, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		s.LastUpdated = s.LastUpdated.UTC()
		list = append(list, &s)
	}
	return list, rows.Err()
}
