package notifications

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Dispatcher delivers notices in the background. Enqueue never blocks.
type Dispatcher struct {
	channel Channel
	logger  *zap.Logger
	queue   chan Notice
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewDispatcher creates a dispatcher with a bounded queue
func NewDispatcher(channel Channel, logger *zap.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &Dispatcher{
		channel: channel,
		logger:  logger,
		queue:   make(chan Notice, queueSize),
	}
}

// Start launches the delivery loop. It drains the queue after Close.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for notice := range d.queue {
			d.deliver(ctx, notice)
		}
	}()
}

// Enqueue queues a notice. It returns false when the queue is full or the
// dispatcher is closed.
func (d *Dispatcher) Enqueue(notice Notice) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.queue <- notice:
		return true
	default:
		d.logger.Warn("Notification queue full, notice dropped",
			zap.String("verification_id", notice.VerificationID))
		return false
	}
}

// Close stops accepting notices and waits for queued ones to be delivered
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, notice Notice) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := d.channel.Send(sendCtx, notice); err != nil {
		d.logger.Error("Failed to deliver notice",
			zap.String("channel", d.channel.Name()),
			zap.String("verification_id", notice.VerificationID),
			zap.Error(err))
		return
	}

	d.logger.Debug("Notice delivered",
		zap.String("channel", d.channel.Name()),
		zap.String("verification_id", notice.VerificationID))
}
