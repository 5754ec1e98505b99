package mail

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mozalert/check-operator/pkg/metrics"
)

// QueueItem is a single mail awaiting delivery with retry bookkeeping.
type QueueItem struct {
	ID        string
	Receivers []string
	Subject   string
	Body      string
	Attempt   int
	CreatedAt time.Time
	NextRetry time.Time
}

// Queue sends mail asynchronously with exponential-backoff retries, so
// escalation dispatch never blocks a reconciliation on an SMTP server.
type Queue struct {
	sender           Sender
	queue            chan *QueueItem
	log              *zap.SugaredLogger
	maxRetries       int
	initialBackoffMs int
	wg               sync.WaitGroup
	ctx              context.Context
	cancel           context.CancelFunc
}

// NewQueue creates a mail queue. Zero values select the defaults of
// 5 retries, 10s initial backoff and 1000 queued items.
func NewQueue(sender Sender, log *zap.SugaredLogger, maxRetries, initialBackoffMs, maxQueueSize int) *Queue {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if initialBackoffMs <= 0 {
		initialBackoffMs = 10000
	}
	if maxQueueSize <= 0 {
		maxQueueSize = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		sender:           sender,
		queue:            make(chan *QueueItem, maxQueueSize),
		log:              log,
		maxRetries:       maxRetries,
		initialBackoffMs: initialBackoffMs,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Start begins the background delivery worker.
func (q *Queue) Start() {
	q.wg.Add(1)
	go q.worker()
	q.log.Info("Mail queue worker started")
}

// Enqueue adds a mail to the queue. It never blocks: a full queue drops
// the mail and reports an error.
func (q *Queue) Enqueue(receivers []string, subject, body string) (string, error) {
	if len(receivers) == 0 {
		metrics.MailQueueDropped.WithLabelValues(q.sender.Host()).Inc()
		return "", fmt.Errorf("cannot enqueue mail with no receivers")
	}

	select {
	case <-q.ctx.Done():
		metrics.MailQueueDropped.WithLabelValues(q.sender.Host()).Inc()
		return "", fmt.Errorf("mail queue is shutting down")
	default:
	}

	item := &QueueItem{
		ID:        uuid.NewString(),
		Receivers: receivers,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
		NextRetry: time.Now(),
	}

	select {
	case q.queue <- item:
		metrics.MailQueued.WithLabelValues(q.sender.Host()).Inc()
		q.log.Debugw("Mail queued", "id", item.ID, "receivers", len(receivers), "subject", subject)
		return item.ID, nil
	default:
		metrics.MailQueueDropped.WithLabelValues(q.sender.Host()).Inc()
		return "", fmt.Errorf("mail queue is full")
	}
}

// Stop shuts the worker down, waiting up to the context deadline for
// in-flight deliveries to finish.
func (q *Queue) Stop(ctx context.Context) error {
	q.cancel()
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for mail queue to stop: %w", ctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case item := <-q.queue:
			q.process(item)
		}
	}
}

func (q *Queue) process(item *QueueItem) {
	if wait := time.Until(item.NextRetry); wait > 0 {
		select {
		case <-q.ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	err := q.sender.Send(item.Receivers, item.Subject, item.Body)
	if err == nil {
		metrics.MailSendSuccess.WithLabelValues(q.sender.Host()).Inc()
		q.log.Debugw("Mail sent", "id", item.ID, "attempt", item.Attempt+1)
		return
	}

	item.Attempt++
	if item.Attempt > q.maxRetries {
		metrics.MailSendFailure.WithLabelValues(q.sender.Host()).Inc()
		q.log.Errorw("Giving up on mail after retries", "id", item.ID, "attempts", item.Attempt, "error", err)
		return
	}

	backoffMs := float64(q.initialBackoffMs) * math.Pow(2, float64(item.Attempt-1))
	backoffMs = math.Min(backoffMs, float64((30 * time.Minute).Milliseconds()))
	item.NextRetry = time.Now().Add(time.Duration(backoffMs) * time.Millisecond)
	q.log.Warnw("Mail send failed, requeueing", "id", item.ID, "attempt", item.Attempt, "nextRetry", item.NextRetry, "error", err)

	select {
	case q.queue <- item:
	default:
		metrics.MailQueueDropped.WithLabelValues(q.sender.Host()).Inc()
		q.log.Errorw("Mail queue full, dropping retry", "id", item.ID)
	}
}
