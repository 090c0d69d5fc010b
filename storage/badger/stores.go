package badger

// Stores bundles every repository backed by one Backend.
type Stores struct {
	Backend    *Backend
	Embeddings *EmbeddingRepository
	Entities   *EntityRepository
	Queue      *QueueRepository
	Index      *IndexRepository
	SearchLog  *SearchLogRepository
	Contents   *ContentRepository
}

// OpenStores opens a backend at filePath and constructs all repositories.
// Caller must Close the returned Stores when done.
func OpenStores(filePath string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	embeddings, err := NewEmbeddingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	entities, err := NewEntityRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	queue, err := NewQueueRepository(backend)
	if err != nil {
		entities.Close()
		backend.Close()
		return nil, err
	}

	searchLog, err := NewSearchLogRepository(backend)
	if err != nil {
		queue.Close()
		entities.Close()
		backend.Close()
		return nil, err
	}

	return &Stores{
		Backend:    backend,
		Embeddings: embeddings,
		Entities:   entities,
		Queue:      queue,
		Index:      NewIndexRepository(backend),
		SearchLog:  searchLog,
		Contents:   NewContentRepository(backend),
	}, nil
}

// Close releases all repositories and the backend.
func (s *Stores) Close() error {
	s.SearchLog.Close()
	s.Queue.Close()
	s.Entities.Close()
	s.Contents.Close()
	s.Index.Close()
	s.Embeddings.Close()
	return s.Backend.Close()
}
