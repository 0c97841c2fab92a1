package entity

import "time"

// Tipos de evento de movimiento.
const (
	EventTypeArrival   = "arrival"   // llegada a la bodega
	EventTypeDeparture = "departure" // salida de la bodega
)

// IsValidEventType indica si t es uno de los dos literales aceptados.
func IsValidEventType(t string) bool {
	return t == EventTypeArrival || t == EventTypeDeparture
}

// MovementEvent evento atómico consumido del stream. Inmutable una vez aceptado.
type MovementEvent struct {
	MovementID      string
	WarehouseID     string
	ProductID       string
	EventType       string
	Quantity        int64
	Timestamp       time.Time // tiempo del evento (UTC), no de ingesta
	SourceWarehouse *string   // informativo, viene del sobre del transporte
	// DeliveryKey identifica la entrega en el transporte (topic/partition/offset).
	// Vacío salvo que la deduplicación de entregas esté activa.
	DeliveryKey string
}
