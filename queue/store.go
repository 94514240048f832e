// Copyright 2025 Poiesic Systems
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
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	badgerstore "github.com/poiesic/distill/storage/badger"
)

// Well-known queue names.
const (
	QueueVideo     = "video"
	QueuePDF       = "pdf"
	QueueKnowledge = "knowledge"
)

const (
	jobPrefix = "jobrec"

	defaultMaxAttempts   = 3
	defaultBackoffBase   = time.Second
	defaultLeaseDuration = 15 * time.Minute

	claimRetries = 3

	succeededRetention = 7 * 24 * time.Hour
	succeededKeep      = 1000
	failedRetention    = 30 * 24 * time.Hour
	failedKeep         = 500
)

// Store persists jobs in badger. Delivery is at-least-once: a claimed job
// holds a lease, and a lease that expires without completion makes the job
// claimable again. Failed attempts are retried with exponential backoff until
// MaxAttempts is consumed.
type Store struct {
	backend *badgerstore.Backend
	logger  *slog.Logger

	maxAttempts int
	backoffBase time.Duration
	lease       time.Duration

	now func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMaxAttempts sets how many times a job may run before it fails for good.
// Default is 3.
func WithMaxAttempts(attempts int) StoreOption {
	return func(s *Store) error {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		return nil
	}
}

// WithBackoffBase sets the first retry delay; each further retry doubles it.
// Default is 1s.
func WithBackoffBase(base time.Duration) StoreOption {
	return func(s *Store) error {
		if base > 0 {
			s.backoffBase = base
		}
		return nil
	}
}

// WithLeaseDuration sets how long a claim remains exclusive.
// Default is 15m.
func WithLeaseDuration(lease time.Duration) StoreOption {
	return func(s *Store) error {
		if lease > 0 {
			s.lease = lease
		}
		return nil
	}
}

// NewStore creates a job store on an open backend.
func NewStore(backend *badgerstore.Backend, opts ...StoreOption) (*Store, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}

	s := &Store{
		backend:     backend,
		logger:      slog.Default().With("component", "queue"),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		lease:       defaultLeaseDuration,
		now:         time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Enqueue persists a new job in the queued state, immediately claimable.
func (s *Store) Enqueue(ctx context.Context, queue string, payload any) (*Job, error) {
	if queue == "" {
		return nil, ErrQueueNameRequired
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	job := &Job{
		ID:          uuid.NewString(),
		Queue:       queue,
		Payload:     raw,
		State:       StateQueued,
		MaxAttempts: s.maxAttempts,
		EnqueuedAt:  s.now().UTC(),
	}
	job.NextRunAt = job.EnqueuedAt

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job), marshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("job enqueued", "queue", queue, "jobId", job.ID)
	return job, nil
}

// Claim leases the oldest runnable job of a queue: a queued job whose
// NextRunAt has passed, or a running job whose lease has expired. Returns
// nil when nothing is runnable. The claim increments Attempts.
func (s *Store) Claim(ctx context.Context, queue string) (*Job, error) {
	if queue == "" {
		return nil, ErrQueueNameRequired
	}

	// Concurrent claimers race on the same key; the loser's commit conflicts
	// and is retried against the next runnable job.
	for attempt := 0; attempt < claimRetries; attempt++ {
		job, err := s.claimOnce(queue)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return job, err
	}
	return nil, nil
}

func (s *Store) claimOnce(queue string) (*Job, error) {
	var claimed *Job
	now := s.now().UTC()

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeQueuePrefix(queue)
		it := tx.NewIterator(opts)

		var key []byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			job, err := unmarshalJobItem(item)
			if err != nil {
				it.Close()
				return err
			}
			if !runnable(job, now) {
				continue
			}
			claimed = job
			key = item.KeyCopy(nil)
			break
		}
		it.Close()

		if claimed == nil {
			return nil
		}

		claimed.State = StateRunning
		claimed.Attempts++
		claimed.LeaseExpiresAt = now.Add(s.lease)
		if err := tx.Set(key, marshalJob(claimed)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func runnable(job *Job, now time.Time) bool {
	switch job.State {
	case StateQueued:
		return !job.NextRunAt.After(now)
	case StateRunning:
		return !job.LeaseExpiresAt.After(now)
	default:
		return false
	}
}

// Complete records the outcome of a claimed job. A nil handler error marks it
// succeeded. An error either schedules a retry with exponential backoff or,
// once attempts are exhausted, marks the job failed for good. The updated job
// is returned.
func (s *Store) Complete(ctx context.Context, job *Job, handlerErr error) (*Job, error) {
	now := s.now().UTC()
	updated := *job
	updated.LeaseExpiresAt = time.Time{}

	if handlerErr == nil {
		updated.State = StateSucceeded
		updated.LastError = ""
		updated.DoneAt = now
	} else {
		updated.LastError = handlerErr.Error()
		if updated.Attempts >= updated.MaxAttempts {
			updated.State = StateFailed
			updated.DoneAt = now
		} else {
			updated.State = StateQueued
			updated.NextRunAt = now.Add(s.backoff(updated.Attempts))
		}
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(&updated), marshalJob(&updated)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	switch updated.State {
	case StateQueued:
		s.logger.Warn("job attempt failed, retrying",
			"queue", updated.Queue, "jobId", updated.ID,
			"attempt", updated.Attempts, "err", handlerErr)
	case StateFailed:
		s.logger.Error("job failed permanently",
			"queue", updated.Queue, "jobId", updated.ID,
			"attempts", updated.Attempts, "err", handlerErr)
	default:
		s.logger.Debug("job succeeded",
			"queue", updated.Queue, "jobId", updated.ID)
	}
	return &updated, nil
}

// backoff returns the delay before retry number attempt+1.
// attempt 1 -> base, attempt 2 -> 2x base, attempt 3 -> 4x base.
func (s *Store) backoff(attempt int) time.Duration {
	delay := s.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// GetJob finds a job by ID across all queues.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var found *Job
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scanJobs(tx, "", func(job *Job, key []byte) bool {
			if job.ID == id {
				found = job
				return false
			}
			return true
		})
	}, false)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return found, nil
}

// QueueStats counts the jobs of a queue per state.
func (s *Store) QueueStats(ctx context.Context, queue string) (*Stats, error) {
	if queue == "" {
		return nil, ErrQueueNameRequired
	}

	stats := &Stats{}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scanJobs(tx, queue, func(job *Job, key []byte) bool {
			switch job.State {
			case StateQueued:
				stats.Queued++
			case StateRunning:
				stats.Running++
			case StateSucceeded:
				stats.Succeeded++
			case StateFailed:
				stats.Failed++
			}
			return true
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Sweep prunes terminal jobs: succeeded jobs older than 7 days or beyond the
// newest 1000 per queue, failed jobs older than 30 days or beyond the newest
// 500 per queue. Returns the number of jobs removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()

	type terminal struct {
		key    []byte
		doneAt time.Time
	}
	type bucket struct {
		queue string
		state State
	}
	expired := make([][]byte, 0)
	survivors := make(map[bucket][]terminal)

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scanJobs(tx, "", func(job *Job, key []byte) bool {
			var retention time.Duration
			switch job.State {
			case StateSucceeded:
				retention = succeededRetention
			case StateFailed:
				retention = failedRetention
			default:
				return true
			}

			if now.Sub(job.DoneAt) > retention {
				expired = append(expired, key)
				return true
			}
			b := bucket{queue: job.Queue, state: job.State}
			survivors[b] = append(survivors[b], terminal{key: key, doneAt: job.DoneAt})
			return true
		})
	}, false)
	if err != nil {
		return 0, err
	}

	doomed := expired
	for b, jobs := range survivors {
		keep := succeededKeep
		if b.state == StateFailed {
			keep = failedKeep
		}
		if len(jobs) <= keep {
			continue
		}
		// Newest first; everything past the cap goes.
		slices.SortFunc(jobs, func(a, b terminal) int {
			return b.doneAt.Compare(a.doneAt)
		})
		for _, job := range jobs[keep:] {
			doomed = append(doomed, job.key)
		}
	}

	if len(doomed) == 0 {
		return 0, nil
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range doomed {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	s.logger.Info("queue retention sweep", "removed", len(doomed))
	return len(doomed), nil
}

// scanJobs visits every job record, scoped to one queue when queue is
// non-empty. The visit callback returns false to stop early.
func scanJobs(tx *badger.Txn, queue string, visit func(job *Job, key []byte) bool) error {
	opts := badger.DefaultIteratorOptions
	if queue != "" {
		opts.Prefix = makeQueuePrefix(queue)
	} else {
		opts.Prefix = []byte(jobPrefix + ":")
	}
	it := tx.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		job, err := unmarshalJobItem(item)
		if err != nil {
			return err
		}
		if !visit(job, item.KeyCopy(nil)) {
			return nil
		}
	}
	return nil
}

// makeJobKey builds the persistent key of a job.
// Format: jobrec:<queue>:<enqueuedAt big-endian>:<id>, so per-queue iteration
// yields jobs in enqueue order.
func makeJobKey(job *Job) []byte {
	prefix := makeQueuePrefix(job.Queue)
	buf := make([]byte, 0, len(prefix)+9+len(job.ID))
	buf = append(buf, prefix...)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(job.EnqueuedAt.UnixNano()))
	buf = append(buf, ts[:]...)
	buf = append(buf, ':')
	buf = append(buf, job.ID...)
	return buf
}

func makeQueuePrefix(queue string) []byte {
	return []byte(jobPrefix + ":" + queue + ":")
}

func marshalJob(job *Job) []byte {
	// Job fields are all JSON-safe; this cannot fail.
	raw, _ := json.Marshal(job)
	return raw
}

func unmarshalJobItem(item *badger.Item) (*Job, error) {
	var job Job
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &job)
	})
	if err != nil {
		return nil, fmt.Errorf("decoding job record: %w", err)
	}
	return &job, nil
}
