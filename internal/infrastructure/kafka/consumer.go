package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

// State estado del ciclo de vida del consumer.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// ErrAlreadyRunning Run invocado sobre un consumer que no está detenido.
var ErrAlreadyRunning = errors.New("kafka consumer: ya en ejecución")

// MessageReader lo que el consumer necesita de *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MessageHandler procesa un mensaje. Devuelve nil cuando el mensaje puede confirmarse
// (incluidos los rechazos de negocio); un error indica un fallo transitorio a reintentar.
type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

// Option configura el Consumer.
type Option func(*Consumer)

// WithBackOff reemplaza la política de reintentos del handler.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Consumer) { c.newBackOff = newBackOff }
}

// WithStateObserver recibe cada transición de estado (p. ej. para un gauge).
func WithStateObserver(fn func(State)) Option {
	return func(c *Consumer) { c.onState = fn }
}

// Consumer bucle de consumo con una goroutine dueña (Run) y drenado ordenado (Stop).
// Un offset se confirma solo cuando el handler devuelve nil.
type Consumer struct {
	reader     MessageReader
	handler    MessageHandler
	log        *logger.Logger
	newBackOff func() backoff.BackOff
	onState    func(State)

	mu          sync.Mutex
	state       State
	cancelFetch context.CancelFunc
	done        chan struct{}
}

// NewConsumer construye el consumer; no arranca hasta Run.
func NewConsumer(reader MessageReader, handler MessageHandler, log *logger.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		reader:     reader,
		handler:    handler,
		log:        log,
		newBackOff: defaultBackOff,
		onState:    func(State) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // hasta éxito o drenado
	return b
}

// State devuelve el estado actual.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Consumer) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.onState(s)
}

// Run consume hasta que ctx se cancela o Stop termina el drenado. Bloquea.
// El mensaje en curso se procesa con un contexto que no se cancela al detener el consumo.
func (c *Consumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateStopped {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.state = StateRunning
	c.cancelFetch = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()
	c.onState(StateRunning)

	defer func() {
		cancel()
		c.setState(StateStopped)
		close(done)
	}()

	c.log.Info().Msg("kafka consumer iniciado")
	for {
		if c.State() == StateDraining {
			c.log.Info().Msg("kafka consumer drenado")
			return nil
		}
		msg, err := c.reader.FetchMessage(fetchCtx)
		if err != nil {
			if fetchCtx.Err() != nil {
				c.log.Info().Msg("kafka consumer detenido")
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		c.process(context.WithoutCancel(ctx), fetchCtx, msg)
	}
}

// process ejecuta el handler con reintentos y confirma el offset si terminó bien.
// Si el consumer se detiene durante los reintentos el mensaje queda sin confirmar y se reentregará.
func (c *Consumer) process(procCtx, fetchCtx context.Context, msg kafkago.Message) {
	op := func() error { return c.handler.Handle(procCtx, msg) }
	notify := func(err error, wait time.Duration) {
		c.log.Error().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Dur("retry_in", wait).
			Msg("fallo procesando mensaje, reintentando")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), fetchCtx), notify); err != nil {
		c.log.Warn().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("mensaje abandonado sin commit")
		return
	}
	if err := c.reader.CommitMessages(procCtx, msg); err != nil {
		c.log.Error().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("commit offset")
	}
}

// Stop pasa a draining, corta la espera del siguiente mensaje y aguarda a que Run termine
// el mensaje en curso. Devuelve ctx.Err() si ctx vence antes.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRunning {
		done := c.done
		c.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.state = StateDraining
	cancel, done := c.cancelFetch, c.done
	c.mu.Unlock()
	c.onState(StateDraining)
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cierra el reader subyacente.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
