package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/api/metrics"
	"github.com/platformkit/identity/internal/core/ports"
	"github.com/platformkit/identity/pkg/logger"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 10 * time.Second
)

// MailDispatcher routes outbound mail to a fixed set of workers using
// consistent hashing on the recipient, so messages to one address are
// published in order. It implements ports.MailQueue.
type MailDispatcher struct {
	workers []chan ports.MailMessage
	sender  ports.MailSender
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, sender ports.MailSender, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan ports.MailMessage, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.MailMessage, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Close has drained their channel.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient.
// It never blocks: a full worker channel drops the message.
func (d *MailDispatcher) Enqueue(m ports.MailMessage) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("kind", string(m.Kind)).Msg("mail dispatcher closed, message dropped")
		return
	}

	idx := d.shardIndex(m.To)
	select {
	case d.workers[idx] <- m:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.MailErrorsTotal.WithLabelValues(string(m.Kind)).Inc()
		d.log.Error().
			Str("kind", string(m.Kind)).
			Str("to", logger.MaskEmail(m.To)).
			Int("worker_id", idx).
			Msg("mail queue full, message dropped")
	}
}

// Close stops accepting messages and waits until the queued ones are sent.
func (d *MailDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.MailMessage) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.send(ctx, id, m)
		}
	}
}

func (d *MailDispatcher) send(ctx context.Context, id int, m ports.MailMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.sender.Send(sendCtx, m)
	metrics.MailPublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MailErrorsTotal.WithLabelValues(string(m.Kind)).Inc()
		d.log.Error().Err(err).
			Str("kind", string(m.Kind)).
			Str("to", logger.MaskEmail(m.To)).
			Int("worker_id", id).
			Msg("mail publish failed")
		return
	}
	metrics.MailSentTotal.WithLabelValues(string(m.Kind)).Inc()
}
