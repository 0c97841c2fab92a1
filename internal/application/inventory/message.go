package inventory

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/warehouse-monitoring/internal/application/dto"
	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Reporta los campos con su nombre JSON (movement_id, quantity...).
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Formatos aceptados para el tiempo del evento. Sin zona horaria se asume UTC.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseMovementMessage decodifica y valida un mensaje crudo del stream.
// Cualquier defecto devuelve *domain.MalformedMessageError con el campo afectado.
func ParseMovementMessage(raw []byte) (entity.MovementEvent, error) {
	var msg dto.MovementMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return entity.MovementEvent{}, decodeError(err)
	}
	return NewMovementEvent(msg)
}

// NewMovementEvent valida el sobre ya decodificado y construye el evento.
func NewMovementEvent(msg dto.MovementMessage) (entity.MovementEvent, error) {
	if msg.Data == nil {
		return entity.MovementEvent{}, &domain.MalformedMessageError{Field: "data", Reason: "requerido"}
	}
	if err := validate.Struct(msg.Data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return entity.MovementEvent{}, &domain.MalformedMessageError{Field: verrs[0].Field(), Reason: reasonFor(verrs[0])}
		}
		return entity.MovementEvent{}, &domain.MalformedMessageError{Field: "data", Reason: err.Error()}
	}
	ts, err := ParseEventTime(msg.Data.Timestamp)
	if err != nil {
		return entity.MovementEvent{}, &domain.MalformedMessageError{Field: "timestamp", Reason: "formato ISO-8601 inválido"}
	}
	return entity.MovementEvent{
		MovementID:      msg.Data.MovementID,
		WarehouseID:     msg.Data.WarehouseID,
		ProductID:       msg.Data.ProductID,
		EventType:       msg.Data.Event,
		Quantity:        *msg.Data.Quantity,
		Timestamp:       ts,
		SourceWarehouse: sourceOf(msg.Source),
	}, nil
}

// ParseEventTime interpreta un timestamp ISO-8601 y lo normaliza a UTC.
// Acepta el designador 'Z' final, offsets explícitos y valores sin zona (tratados como UTC).
func ParseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range eventTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if field == "" {
			field = "payload"
		}
		return &domain.MalformedMessageError{Field: field, Reason: "tipo inválido: se esperaba " + typeErr.Type.String()}
	}
	return &domain.MalformedMessageError{Field: "payload", Reason: "JSON inválido"}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "requerido"
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "no cumple " + fe.Tag()
	}
}

// sourceOf transporta el campo source sin validarlo: un string JSON se usa tal cual,
// cualquier otro valor como su texto crudo.
func sourceOf(raw json.RawMessage) *string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	return &trimmed
}
