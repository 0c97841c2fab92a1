package dto

import (
	"encoding/json"
	"time"
)

// MovementMessage sobre del mensaje consumido del topic de movimientos.
// Source es opcional y se transporta sin validar.
type MovementMessage struct {
	Data   *MovementData   `json:"data"`
	Source json.RawMessage `json:"source,omitempty"`
}

// MovementData payload del evento de movimiento.
type MovementData struct {
	MovementID  string `json:"movement_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	ProductID   string `json:"product_id" validate:"required"`
	Quantity    *int64 `json:"quantity" validate:"required,gt=0"`
	Event       string `json:"event" validate:"required,oneof=arrival departure"`
	Timestamp   string `json:"timestamp" validate:"required"` // ISO-8601, se acepta 'Z' final
}

// MovementResponse vista de un movimiento (salida + llegada) para GET /api/movements/{id}.
// Los campos de un lado no observado se serializan como null.
type MovementResponse struct {
	MovementID         string     `json:"movement_id"`
	DepartureWarehouse *string    `json:"departure_warehouse"`
	ArrivalWarehouse   *string    `json:"arrival_warehouse"`
	ProductID          string     `json:"product_id"`
	Quantity           int64      `json:"quantity"`
	DepartureTime      *time.Time `json:"departure_time"`
	ArrivalTime        *time.Time `json:"arrival_time"`
	TransitDuration    *float64   `json:"transit_duration"`    // segundos
	QuantityDifference *int64     `json:"quantity_difference"` // llegada - salida
}

// StockResponse stock actual de un producto en una bodega.
type StockResponse struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int64     `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

// StockListResponse lista paginada del stock de una bodega.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
