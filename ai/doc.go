// Package ai defines the model-provider abstractions used by the
// retrieval pipeline: text embedding and entity recognition. Concrete
// implementations live in the openai and mock subpackages.
package ai
