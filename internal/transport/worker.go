package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/modi-core/internal/dispatch"
	"github.com/nerrad567/modi-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/modi-core/internal/module"
)

// Publisher sends a payload to a topic. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Source yields queued commands. *dispatch.Queue[module.Command] satisfies it.
type Source interface {
	Receive(ctx context.Context) (module.Command, error)
	Drain() []module.Command
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	QoS     byte
	Logger  Logger
	Metrics *Metrics

	// Limiter paces publishing. Nil publishes as fast as the broker acks.
	Limiter *rate.Limiter
}

// NewLimiter returns a limiter for perSecond commands with the given burst,
// or nil when perSecond is zero.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// Worker drains the dispatch queue onto the bus.
//
// Commands are published in queue order, paced by an optional rate
// limiter. A command that fails to encode or publish is logged and
// counted, never retried.
type Worker struct {
	source    Source
	publisher Publisher
	qos       byte
	logger    Logger
	metrics   *Metrics
	limiter   *rate.Limiter
}

// NewWorker creates a worker reading from source and writing to publisher.
func NewWorker(source Source, publisher Publisher, opts WorkerOptions) *Worker {
	w := &Worker{
		source:    source,
		publisher: publisher,
		qos:       opts.QoS,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		limiter:   opts.Limiter,
	}
	if w.logger == nil {
		w.logger = noopLogger{}
	}
	return w
}

// Run publishes commands until the queue is closed and empty, or ctx ends.
//
// When ctx ends first, commands still queued are discarded and counted in
// the log. Closing the queue before cancelling ctx lets them drain.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("transport worker started")

	for {
		cmd, err := w.source.Receive(ctx)
		switch {
		case err == nil:
			if err := w.pace(ctx); err != nil {
				w.metrics.recordPublish(0, err)
				w.logger.Warn("command not published",
					"destination", cmd.Destination,
					"command", uint16(cmd.Kind),
					"error", err,
				)
				continue
			}
			_ = w.Publish(cmd)
		case errors.Is(err, dispatch.ErrQueueClosed):
			w.logger.Info("transport worker stopped", "reason", "queue closed")
			return nil
		case ctx.Err() != nil:
			if left := w.source.Drain(); len(left) > 0 {
				w.logger.Warn("discarding queued commands on shutdown", "count", len(left))
			}
			w.logger.Info("transport worker stopped", "reason", "context done")
			return nil
		default:
			return fmt.Errorf("receiving command: %w", err)
		}
	}
}

// pace waits for the limiter, if any.
func (w *Worker) pace(ctx context.Context) error {
	if w.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	w.metrics.recordRateWait(time.Since(start).Seconds())
	return nil
}

// Publish encodes one command and publishes it on the module's command topic.
func (w *Worker) Publish(cmd module.Command) error {
	start := time.Now()

	frame, err := EncodeCommand(cmd)
	if err == nil {
		err = w.publisher.Publish(mqtt.Topics{}.Command(cmd.Destination), frame, w.qos, false)
	}
	w.metrics.recordPublish(time.Since(start).Seconds(), err)

	if err != nil {
		w.logger.Error("command not published",
			"destination", cmd.Destination,
			"command", uint16(cmd.Kind),
			"error", err,
		)
		return err
	}

	w.logger.Debug("command published",
		"destination", cmd.Destination,
		"command", uint16(cmd.Kind),
	)
	return nil
}
