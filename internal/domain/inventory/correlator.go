package inventory

import (
	"sort"

	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
)

// Correlate reduce los registros de un movimiento a una única vista de traslado (servicio de dominio).
//
// Los registros se ordenan por tiempo del evento y, a igualdad, por orden de inserción; no se
// confía en el orden de entrega del store. Gana el primer departure y el primer arrival; los
// duplicados posteriores se ignoran. Producto y cantidad base salen del registro más antiguo.
func Correlate(movementID string, records []*entity.MovementRecord) (*entity.PairedTransfer, error) {
	if len(records) == 0 {
		return nil, &domain.NotFoundError{Resource: "movement", Key: movementID}
	}

	ordered := make([]*entity.MovementRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Seq < b.Seq
	})

	var departure, arrival *entity.MovementRecord
	for _, r := range ordered {
		switch r.EventType {
		case entity.EventTypeDeparture:
			if departure == nil {
				departure = r
			}
		case entity.EventTypeArrival:
			if arrival == nil {
				arrival = r
			}
		}
	}
	if departure == nil && arrival == nil {
		return nil, &domain.NoValidEventsError{MovementID: movementID}
	}

	first := ordered[0]
	out := &entity.PairedTransfer{
		MovementID: movementID,
		ProductID:  first.ProductID,
		Quantity:   first.Quantity,
	}
	if departure != nil {
		wh, ts := departure.WarehouseID, departure.Timestamp
		out.DepartureWarehouse = &wh
		out.DepartureTime = &ts
	}
	if arrival != nil {
		wh, ts := arrival.WarehouseID, arrival.Timestamp
		out.ArrivalWarehouse = &wh
		out.ArrivalTime = &ts
	}
	if departure != nil && arrival != nil {
		transit := arrival.Timestamp.Sub(departure.Timestamp).Seconds()
		diff := arrival.Quantity - departure.Quantity
		out.TransitDuration = &transit
		out.QuantityDifference = &diff
	}
	return out, nil
}
