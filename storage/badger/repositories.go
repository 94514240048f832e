package badger

// Repositories bundles the four entity repositories sharing one backend.
type Repositories struct {
	Documents *DocumentRepository
	Segments  *SegmentRepository
	Knowledge *KnowledgePointRepository
	Insights  *InsightRepository
}

// NewRepositories creates all repositories on the given backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		return nil, err
	}

	kpRepo, err := NewKnowledgePointRepository(backend)
	if err != nil {
		docRepo.Close()
		return nil, err
	}

	return &Repositories{
		Documents: docRepo,
		Segments:  NewSegmentRepository(backend),
		Knowledge: kpRepo,
		Insights:  NewInsightRepository(backend),
	}, nil
}

// Close releases the repositories' sequences. The backend is closed
// separately by its owner.
func (r *Repositories) Close() error {
	if err := r.Knowledge.Close(); err != nil {
		return err
	}
	return r.Documents.Close()
}
