// Copyright 2025 Tidefall Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// DefaultMaxRetries is the retry ceiling after which a failed item
// becomes terminal.
const DefaultMaxRetries = 3

// Handler processes one claimed queue item. A returned error marks the
// item failed and charges one retry.
type Handler func(ctx context.Context, item *core.QueueItem) error

// Outcome records what happened to one item during a drain.
type Outcome struct {
	Item *core.QueueItem
	Err  error // nil when the item completed
}

// DrainReport summarizes one drain call.
type DrainReport struct {
	Claimed   int
	Completed int
	Failed    int
	Outcomes  []Outcome
}

// Queue dispatches durable update items to per-content-type handlers.
// Draining is concurrent across items; the per-item claim is atomic at
// the storage layer, so multiple Queue instances may drain the same
// store.
type Queue struct {
	repo       storage.QueueRepository
	handlers   map[core.ContentType]Handler
	pool       *ants.Pool
	maxRetries int
	logger     *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue) error

// WithMaxRetries sets the retry ceiling for failed items.
// Default is DefaultMaxRetries.
func WithMaxRetries(maxRetries int) Option {
	return func(q *Queue) error {
		if maxRetries > 0 {
			q.maxRetries = maxRetries
		}
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent item processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(q *Queue) error {
		if size < 1 {
			size = 1
		}
		if q.pool != nil {
			q.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		q.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// New creates an update queue over the given repository.
func New(repo storage.QueueRepository, opts ...Option) (*Queue, error) {
	if repo == nil {
		return nil, ErrQueueRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		repo:       repo,
		handlers:   map[core.ContentType]Handler{},
		pool:       pool,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default().With("component", "update-queue"),
	}

	for _, opt := range opts {
		if optErr := opt(q); optErr != nil {
			q.Release()
			return nil, optErr
		}
	}

	return q, nil
}

// Register installs the handler for a content type, replacing any
// previous registration. Registration is not safe concurrently with
// Drain; wire handlers up during setup.
func (q *Queue) Register(contentType core.ContentType, handler Handler) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	q.handlers[contentType] = handler
	return nil
}

// Enqueue creates a pending update item.
func (q *Queue) Enqueue(ctx context.Context, contentID string, contentType core.ContentType, updateType core.UpdateType, priority core.Priority) (*core.QueueItem, error) {
	item := &core.QueueItem{
		ContentID:   contentID,
		ContentType: contentType,
		UpdateType:  updateType,
		Priority:    priority,
	}
	stored, err := q.repo.Enqueue(ctx, item)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("item enqueued",
		"id", stored.Id,
		"contentID", contentID,
		"contentType", contentType,
		"updateType", updateType,
		"priority", priority)
	return stored, nil
}

// Drain claims up to maxItems eligible items and processes them
// concurrently. Handler failures are recorded on the item and reported
// per outcome; only infrastructure faults (claim failure) return an
// error. Drain blocks until all claimed items finish.
func (q *Queue) Drain(ctx context.Context, maxItems int) (*DrainReport, error) {
	items, err := q.repo.Claim(ctx, maxItems, q.maxRetries)
	if err != nil {
		return nil, err
	}

	report := &DrainReport{
		Claimed:  len(items),
		Outcomes: make([]Outcome, len(items)),
	}
	if len(items) == 0 {
		return report, nil
	}

	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		submitErr := q.pool.Submit(func() {
			defer wg.Done()
			report.Outcomes[i] = Outcome{Item: item, Err: q.processItem(ctx, item)}
		})
		if submitErr != nil {
			// Pool rejected the task; run inline so the claim is not lost.
			report.Outcomes[i] = Outcome{Item: item, Err: q.processItem(ctx, item)}
			wg.Done()
		}
	}
	wg.Wait()

	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			report.Failed++
		} else {
			report.Completed++
		}
	}

	q.logger.Info("drain finished",
		"claimed", report.Claimed,
		"completed", report.Completed,
		"failed", report.Failed)
	return report, nil
}

// processItem dispatches one claimed item and records its terminal
// status. The returned error is the handler's, for the drain report.
func (q *Queue) processItem(ctx context.Context, item *core.QueueItem) error {
	handler, ok := q.handlers[item.ContentType]
	if !ok {
		q.markFailed(ctx, item, ErrNoHandler.Error())
		return ErrNoHandler
	}

	if err := handler(ctx, item); err != nil {
		q.logger.Warn("handler failed",
			"id", item.Id,
			"contentID", item.ContentID,
			"contentType", item.ContentType,
			"retryCount", item.RetryCount,
			"err", err)
		q.markFailed(ctx, item, err.Error())
		return err
	}

	if err := q.repo.MarkCompleted(ctx, item.Id); err != nil {
		q.logger.Error("error marking item completed", "id", item.Id, "err", err)
		return err
	}
	return nil
}

func (q *Queue) markFailed(ctx context.Context, item *core.QueueItem, message string) {
	if err := q.repo.MarkFailed(ctx, item.Id, message); err != nil {
		q.logger.Error("error marking item failed", "id", item.Id, "err", err)
	}
}

// Stats returns item counts grouped by status.
func (q *Queue) Stats(ctx context.Context) (map[core.QueueStatus]int, error) {
	return q.repo.CountByStatus(ctx)
}

// MaxRetries returns the configured retry ceiling.
func (q *Queue) MaxRetries() int {
	return q.maxRetries
}

// Release releases the worker pool. The queue should not be used after
// calling Release.
func (q *Queue) Release() {
	if q.pool != nil {
		q.pool.Release()
	}
}
