package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
)

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the recipient, so mail to one address goes out in order.
type Dispatcher struct {
	workers []chan ports.Notification
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Notification, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands n to the worker responsible for its recipient. It never
// blocks the caller: when that worker's buffer is full the notification is
// dropped and counted.
func (d *Dispatcher) Enqueue(n ports.Notification) {
	idx := d.shardIndex(n.To)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationsSentTotal.WithLabelValues(string(n.Kind), "dropped").Inc()
		d.log.Warn().Str("kind", string(n.Kind)).Int("worker_id", idx).Msg("notification queue full, dropping")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ch:
			metrics.NotificationsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.send(ctx, id, n)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, id int, n ports.Notification) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, n); err != nil {
		metrics.NotificationsSentTotal.WithLabelValues(string(n.Kind), "error").Inc()
		d.log.Error().Err(err).
			Str("kind", string(n.Kind)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsSentTotal.WithLabelValues(string(n.Kind), "sent").Inc()
}
