package inventory

import (
	"context"

	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que la mutación del ledger y el registro del movimiento se confirmen juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		recordRepo repository.MovementRecordRepository,
	) error) error
}

// MovementCache caché opcional de vistas de movimiento ya correlacionadas.
// Get devuelve (nil, nil) cuando no hay entrada. Set guarda la vista solo si version
// supera la versión en caché; version es el número de registros confirmados del movimiento,
// que solo crece porque el log es append-only.
type MovementCache interface {
	Get(ctx context.Context, movementID string) (*entity.PairedTransfer, error)
	Set(ctx context.Context, view *entity.PairedTransfer, version int64) error
	Invalidate(ctx context.Context, movementID string) error
}
