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


// Package queue provides a durable job queue on top of the badger backend.
//
// Jobs survive process restarts. Delivery is at-least-once: a worker claims
// a job by taking a time-bounded lease, and a lease that expires without a
// recorded outcome makes the job claimable again. Handlers must therefore be
// idempotent. Failed attempts are retried with exponential backoff until the
// attempt budget is consumed, after which the job is kept as failed for
// inspection. A periodic sweep prunes terminal jobs by age and count.
//
// Workers run claimed jobs on a bounded goroutine pool, one Worker per named
// queue:
//
//	store, _ := queue.NewStore(backend)
//	worker, _ := queue.NewWorker(store, queue.QueueVideo, handleVideo)
//	go worker.Run(ctx)
package queue
