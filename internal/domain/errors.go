package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrMalformedMessage  = errors.New("mensaje mal formado")
	ErrNoValidEvents     = errors.New("sin eventos válidos")
)

// MalformedMessageError indica un mensaje del stream estructuralmente inválido.
// No es reintentable: el mensaje es defectuoso, no el sistema.
type MalformedMessageError struct {
	Field  string
	Reason string
}

func (e *MalformedMessageError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("mensaje mal formado: campo %q", e.Field)
	}
	return fmt.Sprintf("mensaje mal formado: campo %q: %s", e.Field, e.Reason)
}

func (e *MalformedMessageError) Is(target error) bool { return target == ErrMalformedMessage }

// InsufficientStockError rechazo de negocio: la salida dejaría el stock en negativo.
type InsufficientStockError struct {
	WarehouseID string
	ProductID   string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: solicitado %d, disponible %d",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NotFoundError entidad inexistente en el path de lectura.
type NotFoundError struct {
	Resource string // "stock" | "movement"
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NoValidEventsError el movimiento tiene registros pero ninguno es arrival ni departure.
type NoValidEventsError struct {
	MovementID string
}

func (e *NoValidEventsError) Error() string {
	return fmt.Sprintf("no se encontraron eventos válidos para el movimiento %s", e.MovementID)
}

func (e *NoValidEventsError) Is(target error) bool { return target == ErrNoValidEvents }
