// Package queue implements the durable, retry-capable update queue
// that keeps the embedding index consistent with the content corpus.
// Items are claimed atomically in (priority, age) order and dispatched
// to per-content-type handlers on a worker pool; a handler failure
// charges one retry, and items at the retry ceiling become terminal.
package queue
