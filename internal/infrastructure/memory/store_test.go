package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitoring/internal/domain"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/memory"
)

var t0 = time.Date(2025, 2, 18, 12, 0, 0, 0, time.UTC)

func record(movementID, typ string, ts time.Time) *entity.MovementRecord {
	return &entity.MovementRecord{
		MovementID:  movementID,
		WarehouseID: "W1",
		ProductID:   "P1",
		EventType:   typ,
		Quantity:    1,
		Timestamp:   ts,
	}
}

func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(stockRepo repository.StockRepository, recordRepo repository.MovementRecordRepository) error {
		st, err := stockRepo.GetForUpdate(ctx, "W1", "P1")
		require.NoError(t, err)
		st.Quantity = 7
		require.NoError(t, stockRepo.Save(ctx, st))
		require.NoError(t, recordRepo.Append(ctx, record("M1", entity.EventTypeArrival, t0)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err := s.StockRepository().Get(ctx, "W1", "P1")
	require.NoError(t, err)
	assert.Nil(t, st, "la fila creada en la tx no sobrevive al rollback")

	list, err := s.MovementRecordRepository().ListByMovementID(ctx, "M1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRun_CommitVisibleYSecuencia(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.Run(ctx, func(_ repository.StockRepository, recordRepo repository.MovementRecordRepository) error {
			return recordRepo.Append(ctx, record("M1", entity.EventTypeArrival, t0))
		})
		require.NoError(t, err)
	}

	list, err := s.MovementRecordRepository().ListByMovementID(ctx, "M1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, r := range list {
		assert.Equal(t, int64(i+1), r.Seq)
		assert.NotEmpty(t, r.ID)
	}
}

func TestRun_LecturasDentroDeLaTx(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	err := s.Run(ctx, func(stockRepo repository.StockRepository, recordRepo repository.MovementRecordRepository) error {
		st, err := stockRepo.GetForUpdate(ctx, "W1", "P1")
		if err != nil {
			return err
		}
		st.Quantity = 3
		if err := stockRepo.Save(ctx, st); err != nil {
			return err
		}
		got, err := stockRepo.Get(ctx, "W1", "P1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Quantity)

		require.NoError(t, recordRepo.Append(ctx, record("M1", entity.EventTypeArrival, t0)))
		pending, err := recordRepo.ListByMovementID(ctx, "M1")
		require.NoError(t, err)
		assert.Len(t, pending, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestAppend_ClaveDeEntregaDuplicada(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	repo := s.MovementRecordRepository()

	first := record("M1", entity.EventTypeArrival, t0)
	first.DeliveryKey = "warehouse_movements/0/1"
	require.NoError(t, repo.Append(ctx, first))

	again := record("M1", entity.EventTypeArrival, t0)
	again.DeliveryKey = "warehouse_movements/0/1"
	err := repo.Append(ctx, again)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// Sin clave no hay deduplicación.
	require.NoError(t, repo.Append(ctx, record("M1", entity.EventTypeArrival, t0)))
	require.NoError(t, repo.Append(ctx, record("M1", entity.EventTypeArrival, t0)))

	list, err := repo.ListByMovementID(ctx, "M1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestListByMovementID_OrdenPorTimestampYSeq(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	repo := s.MovementRecordRepository()

	require.NoError(t, repo.Append(ctx, record("M1", entity.EventTypeArrival, t0.Add(time.Hour))))
	require.NoError(t, repo.Append(ctx, record("M1", entity.EventTypeDeparture, t0)))
	require.NoError(t, repo.Append(ctx, record("M1", entity.EventTypeArrival, t0)))
	require.NoError(t, repo.Append(ctx, record("M2", entity.EventTypeArrival, t0)))

	list, err := repo.ListByMovementID(ctx, "M1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, entity.EventTypeDeparture, list[0].EventType)
	assert.Equal(t, entity.EventTypeArrival, list[1].EventType)
	assert.True(t, list[0].Seq < list[1].Seq)
	assert.True(t, list[2].Timestamp.Equal(t0.Add(time.Hour)))
}

func TestListByWarehouse_OrdenYPaginacion(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	repo := s.StockRepository()

	for _, p := range []string{"C", "A", "B"} {
		require.NoError(t, repo.Save(ctx, &entity.Stock{WarehouseID: "W1", ProductID: p, Quantity: 1}))
	}
	require.NoError(t, repo.Save(ctx, &entity.Stock{WarehouseID: "W2", ProductID: "A", Quantity: 1}))

	all, err := repo.ListByWarehouse(ctx, "W1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].ProductID)
	assert.Equal(t, "C", all[2].ProductID)

	page, err := repo.ListByWarehouse(ctx, "W1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "B", page[0].ProductID)

	empty, err := repo.ListByWarehouse(ctx, "W1", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRun_ContextoCancelado(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Run(ctx, func(repository.StockRepository, repository.MovementRecordRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
