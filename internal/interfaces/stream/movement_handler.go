package stream

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/kafka"
	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

var _ kafka.MessageHandler = (*MovementHandler)(nil)

// Reconciler aplica un evento al ledger.
type Reconciler interface {
	Apply(ctx context.Context, ev entity.MovementEvent) (*entity.MovementRecord, error)
}

// MovementHandler traduce mensajes del topic de movimientos a llamadas al ledger.
// Los fallos propios del evento se registran y el mensaje se confirma; solo los fallos
// de infraestructura se devuelven para que el consumer reintente.
type MovementHandler struct {
	reconcile Reconciler
	dedupe    bool
	log       *logger.Logger
}

// NewMovementHandler construye el handler. Con dedupe cada registro guarda su clave de entrega.
func NewMovementHandler(reconcile Reconciler, dedupe bool, log *logger.Logger) *MovementHandler {
	return &MovementHandler{reconcile: reconcile, dedupe: dedupe, log: log}
}

// Handle aplica un mensaje. Devuelve nil si el offset puede confirmarse.
func (h *MovementHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	start := time.Now()

	ev, err := inventory.ParseMovementMessage(msg.Value)
	if err != nil {
		h.observe(OutcomeMalformed, "", start)
		h.log.Warn().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Bytes("raw_value", msg.Value).
			Msg("mensaje de movimiento descartado")
		return nil
	}
	if h.dedupe {
		ev.DeliveryKey = kafka.DeliveryKey(msg)
	}

	rec, err := h.reconcile.Apply(ctx, ev)
	switch {
	case err == nil:
		h.observe(OutcomeApplied, ev.EventType, start)
		h.log.Info().
			Str("movement_id", ev.MovementID).
			Str("warehouse_id", ev.WarehouseID).
			Str("product_id", ev.ProductID).
			Str("event", ev.EventType).
			Int64("quantity", ev.Quantity).
			Int64("seq", rec.Seq).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("movimiento aplicado")
		return nil
	case errors.Is(err, domain.ErrInsufficientStock):
		h.observe(OutcomeRejected, ev.EventType, start)
		h.logEvent(h.log.Warn().Err(err), ev, msg).Msg("salida rechazada por stock insuficiente")
		return nil
	case errors.Is(err, domain.ErrDuplicate):
		h.observe(OutcomeDuplicate, ev.EventType, start)
		h.logEvent(h.log.Warn().Err(err), ev, msg).Msg("entrega duplicada ignorada")
		return nil
	case errors.Is(err, domain.ErrMalformedMessage):
		h.observe(OutcomeMalformed, ev.EventType, start)
		h.logEvent(h.log.Warn().Err(err), ev, msg).Msg("evento inválido descartado")
		return nil
	default:
		h.observe(OutcomeFailed, ev.EventType, start)
		h.logEvent(h.log.Error().Err(err), ev, msg).Msg("fallo aplicando movimiento")
		return err
	}
}

func (h *MovementHandler) logEvent(e *zerolog.Event, ev entity.MovementEvent, msg kafkago.Message) *zerolog.Event {
	return e.
		Str("movement_id", ev.MovementID).
		Str("warehouse_id", ev.WarehouseID).
		Str("product_id", ev.ProductID).
		Str("event", ev.EventType).
		Int64("quantity", ev.Quantity).
		Time("timestamp", ev.Timestamp).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset)
}

func (h *MovementHandler) observe(outcome, event string, start time.Time) {
	eventsTotal.WithLabelValues(outcome, event).Inc()
	processingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
