package queue

import "errors"

var (
	// ErrQueueRepositoryRequired is returned when a queue repository is not provided.
	ErrQueueRepositoryRequired = errors.New("queue repository required")

	// ErrHandlerRequired is returned when a nil handler is registered.
	ErrHandlerRequired = errors.New("handler required")

	// ErrNoHandler is recorded on items whose content type has no
	// registered handler.
	ErrNoHandler = errors.New("no handler registered for content type")
)
