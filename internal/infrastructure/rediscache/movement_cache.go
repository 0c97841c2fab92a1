package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
)

var _ inventory.MovementCache = (*MovementCache)(nil)

const movementKeyPrefix = "movement:"

// MovementCache vistas correlacionadas de movimientos en Redis, clave movement:<id>.
// Cada clave es un hash con la vista (campo view) y su versión (campo version).
type MovementCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// setIfNewer escribe la vista solo si ARGV[1] supera la versión guardada.
// ARGV: versión, vista codificada, TTL en milisegundos (<= 0 sin expiración).
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'view', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
else
  redis.call('PERSIST', KEYS[1])
end
return 1
`)

// NewMovementCache construye la caché; ttl <= 0 guarda sin expiración.
func NewMovementCache(rdb *redis.Client, ttl time.Duration) *MovementCache {
	return &MovementCache{rdb: rdb, ttl: ttl}
}

// Get devuelve (nil, nil) si la clave no existe.
func (c *MovementCache) Get(ctx context.Context, movementID string) (*entity.PairedTransfer, error) {
	raw, err := c.rdb.HGet(ctx, movementKey(movementID), "view").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get movement: %w", err)
	}
	return decodeView(raw)
}

// Set guarda la vista si version es mayor que la almacenada. Devuelve nil también
// cuando la descarta por antigua.
func (c *MovementCache) Set(ctx context.Context, view *entity.PairedTransfer, version int64) error {
	raw, err := encodeView(view)
	if err != nil {
		return err
	}
	ttl := c.ttl.Milliseconds()
	if ttl < 0 {
		ttl = 0
	}
	if err := setIfNewer.Run(ctx, c.rdb, []string{movementKey(view.MovementID)}, version, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set movement: %w", err)
	}
	return nil
}

// Invalidate borra la vista y su versión.
func (c *MovementCache) Invalidate(ctx context.Context, movementID string) error {
	if err := c.rdb.Del(ctx, movementKey(movementID)).Err(); err != nil {
		return fmt.Errorf("redis del movement: %w", err)
	}
	return nil
}

func movementKey(movementID string) string {
	return movementKeyPrefix + movementID
}

// cachedView forma serializada; los tiempos viajan en RFC3339Nano UTC.
type cachedView struct {
	MovementID         string     `json:"movement_id"`
	ProductID          string     `json:"product_id"`
	Quantity           int64      `json:"quantity"`
	DepartureWarehouse *string    `json:"departure_warehouse,omitempty"`
	DepartureTime      *time.Time `json:"departure_time,omitempty"`
	ArrivalWarehouse   *string    `json:"arrival_warehouse,omitempty"`
	ArrivalTime        *time.Time `json:"arrival_time,omitempty"`
	TransitDuration    *float64   `json:"transit_duration,omitempty"`
	QuantityDifference *int64     `json:"quantity_difference,omitempty"`
}

func encodeView(v *entity.PairedTransfer) ([]byte, error) {
	raw, err := json.Marshal(cachedView(*v))
	if err != nil {
		return nil, fmt.Errorf("encode movement view: %w", err)
	}
	return raw, nil
}

func decodeView(raw []byte) (*entity.PairedTransfer, error) {
	var cv cachedView
	if err := json.Unmarshal(raw, &cv); err != nil {
		return nil, fmt.Errorf("decode movement view: %w", err)
	}
	v := entity.PairedTransfer(cv)
	if v.DepartureTime != nil {
		t := v.DepartureTime.UTC()
		v.DepartureTime = &t
	}
	if v.ArrivalTime != nil {
		t := v.ArrivalTime.UTC()
		v.ArrivalTime = &t
	}
	return &v, nil
}
