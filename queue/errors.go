package queue

import "errors"

var (
	// ErrBackendRequired is returned when a storage backend is not provided.
	ErrBackendRequired = errors.New("storage backend required")

	// ErrHandlerRequired is returned when a job handler is not provided.
	ErrHandlerRequired = errors.New("job handler required")

	// ErrQueueNameRequired is returned when a queue name is empty.
	ErrQueueNameRequired = errors.New("queue name required")

	// ErrJobNotFound indicates the referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")
)
