// Package worker runs the background side of event delivery.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/events"
	"github.com/kidsact/admin-console/internal/service"
)

const forwardTimeout = 10 * time.Second

// NotificationWorker drains forwarded events on its own goroutine so that
// request handlers never wait on the broker. When the queue is full new
// events are dropped and logged.
type NotificationWorker struct {
	queue   chan events.Event
	forward events.EventHandler
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// StartNotificationWorker subscribes the notification handlers to dispatcher
// and starts forwarding to forward, which may be nil to only log events.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger, forward events.EventHandler, buffer int) *NotificationWorker {
	if buffer <= 0 {
		buffer = 1
	}
	w := &NotificationWorker{
		queue:   make(chan events.Event, buffer),
		forward: forward,
		logger:  logger,
	}

	var enqueue events.EventHandler
	if forward != nil {
		enqueue = w.enqueue
		w.wg.Add(1)
		go w.run()
	}
	service.NewNotificationService(dispatcher, logger, enqueue).RegisterHandlers()
	return w
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
		if err := w.forward(ctx, event); err != nil {
			w.logger.Warn("forward event failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
		cancel()
	}
}

// Stop flushes queued events and waits for the forwarding goroutine.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}
