package kafka_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/kafka"
	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeReader struct {
	msgs chan kafkago.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(n int) *fakeReader {
	r := &fakeReader{msgs: make(chan kafkago.Message, n)}
	for i := 0; i < n; i++ {
		r.msgs <- kafkago.Message{Topic: "warehouse_movements", Partition: 0, Offset: int64(i)}
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type handlerFunc func(ctx context.Context, msg kafkago.Message) error

func (f handlerFunc) Handle(ctx context.Context, msg kafkago.Message) error { return f(ctx, msg) }

func fastRetry() kafka.Option {
	return kafka.WithBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) })
}

func runAsync(c *kafka.Consumer, ctx context.Context) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	return errc
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumer_ConfirmaEnOrden(t *testing.T) {
	reader := newFakeReader(3)
	var handled sync.WaitGroup
	handled.Add(3)
	h := handlerFunc(func(context.Context, kafkago.Message) error {
		handled.Done()
		return nil
	})
	c := kafka.NewConsumer(reader, h, logger.Nop())

	errc := runAsync(c, context.Background())
	handled.Wait()
	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, <-errc)
	assert.Equal(t, []int64{0, 1, 2}, reader.commits())
	assert.Equal(t, kafka.StateStopped, c.State())
}

func TestConsumer_ReintentaFalloTransitorio(t *testing.T) {
	reader := newFakeReader(1)
	var mu sync.Mutex
	attempts := 0
	h := handlerFunc(func(context.Context, kafkago.Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("db caída")
		}
		return nil
	})
	c := kafka.NewConsumer(reader, h, logger.Nop(), fastRetry())

	errc := runAsync(c, context.Background())
	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, <-errc)

	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()
}

// Stop durante el procesamiento: el mensaje en curso termina, se confirma y no se lee otro.
func TestConsumer_StopDrenaMensajeEnCurso(t *testing.T) {
	reader := newFakeReader(2)
	started := make(chan struct{})
	release := make(chan struct{})
	var handlerCtxErr error
	h := handlerFunc(func(ctx context.Context, msg kafkago.Message) error {
		if msg.Offset == 0 {
			close(started)
			<-release
			handlerCtxErr = ctx.Err()
		}
		return nil
	})
	var states []kafka.State
	var smu sync.Mutex
	c := kafka.NewConsumer(reader, h, logger.Nop(), kafka.WithStateObserver(func(s kafka.State) {
		smu.Lock()
		states = append(states, s)
		smu.Unlock()
	}))

	errc := runAsync(c, context.Background())
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- c.Stop(context.Background()) }()
	require.Eventually(t, func() bool { return c.State() == kafka.StateDraining }, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-stopped)
	require.NoError(t, <-errc)

	assert.NoError(t, handlerCtxErr, "el contexto del mensaje en curso no se cancela")
	assert.Equal(t, []int64{0}, reader.commits(), "el segundo mensaje no se consume")
	smu.Lock()
	assert.Equal(t, []kafka.State{kafka.StateRunning, kafka.StateDraining, kafka.StateStopped}, states)
	smu.Unlock()
}

func TestConsumer_StopDuranteReintentos_SinCommit(t *testing.T) {
	reader := newFakeReader(1)
	failing := make(chan struct{}, 1)
	h := handlerFunc(func(context.Context, kafkago.Message) error {
		select {
		case failing <- struct{}{}:
		default:
		}
		return errors.New("broker caído")
	})
	c := kafka.NewConsumer(reader, h, logger.Nop(), fastRetry())

	errc := runAsync(c, context.Background())
	<-failing
	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, <-errc)
	assert.Empty(t, reader.commits())
}

func TestConsumer_CancelacionDelContexto(t *testing.T) {
	reader := newFakeReader(0)
	c := kafka.NewConsumer(reader, handlerFunc(func(context.Context, kafkago.Message) error { return nil }), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(c, ctx)
	require.Eventually(t, func() bool { return c.State() == kafka.StateRunning }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errc)
	assert.Equal(t, kafka.StateStopped, c.State())
}

func TestConsumer_RunDosVeces(t *testing.T) {
	reader := newFakeReader(0)
	c := kafka.NewConsumer(reader, handlerFunc(func(context.Context, kafkago.Message) error { return nil }), logger.Nop())

	errc := runAsync(c, context.Background())
	require.Eventually(t, func() bool { return c.State() == kafka.StateRunning }, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Run(context.Background()), kafka.ErrAlreadyRunning)

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, <-errc)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestConsumer_StopSinRun(t *testing.T) {
	c := kafka.NewConsumer(newFakeReader(0), handlerFunc(func(context.Context, kafkago.Message) error { return nil }), logger.Nop())
	assert.NoError(t, c.Stop(context.Background()))
}

func TestDeliveryKey(t *testing.T) {
	msg := kafkago.Message{Topic: "warehouse_movements", Partition: 2, Offset: 17}
	assert.Equal(t, "warehouse_movements/2/17", kafka.DeliveryKey(msg))
}
