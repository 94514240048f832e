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
	"encoding/json"
	"time"
)

// State tracks a job through its delivery lifecycle.
// Transitions: queued -> running -> succeeded, or running -> queued (retry)
// and running -> failed once attempts are exhausted.
type State int

const (
	// StateQueued means the job is waiting for a worker, possibly with a
	// backoff delay.
	StateQueued State = iota + 1
	// StateRunning means a worker holds a lease on the job. An expired lease
	// makes the job claimable again (at-least-once delivery).
	StateRunning
	// StateSucceeded means the handler completed without error.
	StateSucceeded
	// StateFailed means every attempt was consumed.
	StateFailed
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Job is one persisted unit of work.
type Job struct {
	ID      string
	Queue   string
	Payload json.RawMessage

	State       State
	Attempts    int
	MaxAttempts int

	// NextRunAt delays a retried job; a queued job is claimable once it has
	// passed.
	NextRunAt time.Time

	// LeaseExpiresAt bounds a running job. A worker crash leaves the lease
	// to expire, after which the job is redelivered.
	LeaseExpiresAt time.Time

	LastError  string
	EnqueuedAt time.Time
	DoneAt     time.Time
}

// DecodePayload unmarshals the job payload into v.
func (j *Job) DecodePayload(v any) error {
	return json.Unmarshal(j.Payload, v)
}

// Stats counts jobs per state for one queue.
type Stats struct {
	Queued    int
	Running   int
	Succeeded int
	Failed    int
}
