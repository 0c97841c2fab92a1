package entity

import "time"

// MovementRecord registro persistido por cada evento aplicado al ledger.
// Log append-only por movement_id; puede haber duplicados de (movement_id, event_type).
type MovementRecord struct {
	ID              string
	Seq             int64 // orden de inserción, desempate cuando los timestamps coinciden
	MovementID      string
	WarehouseID     string
	ProductID       string
	EventType       string
	Quantity        int64
	Timestamp       time.Time
	SourceWarehouse *string
	DeliveryKey     string
	CreatedAt       time.Time
}
