package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type stockKey struct {
	warehouseID string
	productID   string
}

// Store almacenamiento en memoria del ledger y del log de movimientos (STORAGE_DRIVER=memory).
// Las transacciones se serializan con un mutex y sus escrituras se aplican solo al confirmar.
type Store struct {
	mu           sync.Mutex
	stock        map[stockKey]entity.Stock
	records      []entity.MovementRecord
	deliveryKeys map[string]struct{}
	seq          int64
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		stock:        make(map[stockKey]entity.Stock),
		deliveryKeys: make(map[string]struct{}),
	}
}

// StockRepository devuelve un repositorio de stock sobre el estado confirmado.
func (s *Store) StockRepository() repository.StockRepository {
	return &StockRepo{v: committedView{s}}
}

// MovementRecordRepository devuelve un repositorio de registros sobre el estado confirmado.
func (s *Store) MovementRecordRepository() repository.MovementRecordRepository {
	return &MovementRecordRepo{v: committedView{s}}
}

// Run ejecuta fn con repos atados a una tx en memoria; Commit si fn devuelve nil, descarta si no.
// fn no debe usar los repos devueltos por StockRepository/MovementRecordRepository (deadlock).
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	recordRepo repository.MovementRecordRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txView{
		s:     s,
		stock: make(map[stockKey]entity.Stock),
		keys:  make(map[string]struct{}),
	}
	if err := fn(&StockRepo{v: tx}, &MovementRecordRepo{v: tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// view abstrae el estado visible: el confirmado o el de una tx en curso.
type view interface {
	getStock(k stockKey) (entity.Stock, bool)
	putStock(st entity.Stock)
	listStock(warehouseID string) []entity.Stock
	appendRecord(rec *entity.MovementRecord) error
	recordsOf(movementID string) []entity.MovementRecord
}

// ── estado confirmado ─────────────────────────────────────────────────────────

type committedView struct{ s *Store }

func (c committedView) getStock(k stockKey) (entity.Stock, bool) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	st, ok := c.s.stock[k]
	return st, ok
}

func (c committedView) putStock(st entity.Stock) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.stock[stockKey{st.WarehouseID, st.ProductID}] = st
}

func (c committedView) listStock(warehouseID string) []entity.Stock {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.listStockLocked(warehouseID, nil)
}

func (c committedView) appendRecord(rec *entity.MovementRecord) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if rec.DeliveryKey != "" {
		if _, dup := c.s.deliveryKeys[rec.DeliveryKey]; dup {
			return fmt.Errorf("append movement record %s: %w", rec.DeliveryKey, domain.ErrDuplicate)
		}
		c.s.deliveryKeys[rec.DeliveryKey] = struct{}{}
	}
	c.s.seq++
	assignIdentity(rec, c.s.seq)
	c.s.records = append(c.s.records, *rec)
	return nil
}

func (c committedView) recordsOf(movementID string) []entity.MovementRecord {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return filterRecords(c.s.records, movementID)
}

// ── transacción en curso (s.mu ya tomado por Run) ─────────────────────────────

type txView struct {
	s       *Store
	stock   map[stockKey]entity.Stock
	records []entity.MovementRecord
	keys    map[string]struct{}
}

func (t *txView) getStock(k stockKey) (entity.Stock, bool) {
	if st, ok := t.stock[k]; ok {
		return st, true
	}
	st, ok := t.s.stock[k]
	return st, ok
}

func (t *txView) putStock(st entity.Stock) {
	t.stock[stockKey{st.WarehouseID, st.ProductID}] = st
}

func (t *txView) listStock(warehouseID string) []entity.Stock {
	return t.s.listStockLocked(warehouseID, t.stock)
}

func (t *txView) appendRecord(rec *entity.MovementRecord) error {
	if rec.DeliveryKey != "" {
		_, committed := t.s.deliveryKeys[rec.DeliveryKey]
		_, pending := t.keys[rec.DeliveryKey]
		if committed || pending {
			return fmt.Errorf("append movement record %s: %w", rec.DeliveryKey, domain.ErrDuplicate)
		}
		t.keys[rec.DeliveryKey] = struct{}{}
	}
	assignIdentity(rec, t.s.seq+int64(len(t.records))+1)
	t.records = append(t.records, *rec)
	return nil
}

func (t *txView) recordsOf(movementID string) []entity.MovementRecord {
	out := filterRecords(t.s.records, movementID)
	return append(out, filterRecords(t.records, movementID)...)
}

func (t *txView) commit() {
	for k, st := range t.stock {
		t.s.stock[k] = st
	}
	for k := range t.keys {
		t.s.deliveryKeys[k] = struct{}{}
	}
	t.s.records = append(t.s.records, t.records...)
	t.s.seq += int64(len(t.records))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *Store) listStockLocked(warehouseID string, overlay map[stockKey]entity.Stock) []entity.Stock {
	merged := make(map[stockKey]entity.Stock)
	for k, st := range s.stock {
		if k.warehouseID == warehouseID {
			merged[k] = st
		}
	}
	for k, st := range overlay {
		if k.warehouseID == warehouseID {
			merged[k] = st
		}
	}
	out := make([]entity.Stock, 0, len(merged))
	for _, st := range merged {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func assignIdentity(rec *entity.MovementRecord, seq int64) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Seq = seq
}

func filterRecords(all []entity.MovementRecord, movementID string) []entity.MovementRecord {
	var out []entity.MovementRecord
	for _, r := range all {
		if r.MovementID == movementID {
			out = append(out, r)
		}
	}
	return out
}
