package entity

import "time"

// Stock representa el stock actual de un producto en una bodega (fila del ledger).
// Se crea perezosamente con cantidad 0 y nunca se elimina.
type Stock struct {
	WarehouseID string
	ProductID   string
	Quantity    int64 // nunca negativo en estado confirmado
	LastUpdated time.Time
}
