package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/metrics"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher delivers mail in the background. Callers never wait for, or
// learn about, delivery failures; those are logged and counted.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		logger:  logger.With("component", "email_dispatcher"),
		timeout: defaultSendTimeout,
	}
}

// Dispatch sends in a new goroutine. The request context's values (request
// id) are kept but its cancellation is not.
func (d *Dispatcher) Dispatch(ctx context.Context, to, subject, body string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.sender.Send(sendCtx, to, subject, body); err != nil {
			metrics.EmailsSentTotal.WithLabelValues("failure").Inc()
			d.logger.ErrorContext(sendCtx, "email delivery failed", "subject", subject, "error", err)
			return
		}
		metrics.EmailsSentTotal.WithLabelValues("success").Inc()
	}()
}

// Wait blocks until every dispatched email has finished. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
