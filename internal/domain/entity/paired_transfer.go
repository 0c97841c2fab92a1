package entity

import "time"

// PairedTransfer vista reconstruida de un movimiento: salida + llegada.
// Los campos de un lado ausente quedan en nil.
type PairedTransfer struct {
	MovementID         string
	ProductID          string
	Quantity           int64
	DepartureWarehouse *string
	DepartureTime      *time.Time
	ArrivalWarehouse   *string
	ArrivalTime        *time.Time
	TransitDuration    *float64 // segundos; puede ser negativo si los tiempos llegan desordenados
	QuantityDifference *int64   // arrival - departure
}
