package photo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates unique IDs for batches
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// BatchRunner analyzes a batch of sources into ordered records
type BatchRunner interface {
	Run(ctx context.Context, sources []Source) ([]Record, Summary, error)
}

// DocumentDispatcher hands a finished document to the outside world
type DocumentDispatcher interface {
	Dispatch(ctx context.Context, doc []byte) DispatchReport
	Document() ([]byte, error)
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles batch operations
type Service struct {
	runner      BatchRunner
	db          DB
	dispatcher  DocumentDispatcher
	dispatch    bool
	idGenerator IDGenerator
	timeSource  TimeSource

	// mu keeps the write-then-launch sequence of one batch from
	// interleaving with another's
	mu sync.Mutex
}

// NewService creates a new Service with default ID generator and time source.
// When dispatch is false, documents are only kept in history.
func NewService(runner BatchRunner, db DB, dispatcher DocumentDispatcher, dispatch bool) *Service {
	return NewServiceWithDeps(runner, db, dispatcher, dispatch, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(runner BatchRunner, db DB, dispatcher DocumentDispatcher, dispatch bool, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		runner:      runner,
		db:          db,
		dispatcher:  dispatcher,
		dispatch:    dispatch,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessBatch analyzes sources, serializes the records, records the batch
// in history and dispatches the document. Only analysis cancellation and
// serialization failures are returned; history and dispatch failures are
// logged.
func (s *Service) ProcessBatch(ctx context.Context, sources []Source) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, summary, err := s.runner.Run(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("analyzing batch: %w", err)
	}

	doc, err := Serialize(records)
	if err != nil {
		slog.Error("Failed to serialize batch", "images", summary.Loaded, "error", err)
		return nil, err
	}

	batch := &Batch{
		ID:        s.idGenerator.Generate(),
		Images:    summary.Loaded,
		Skipped:   summary.Skipped,
		Document:  doc,
		CreatedAt: s.timeSource.Now(),
	}

	if err := s.db.SaveBatch(batch); err != nil {
		slog.Error("Failed to save batch history", "id", batch.ID, "error", err)
	}

	if s.dispatch {
		report := s.dispatcher.Dispatch(ctx, doc)
		slog.Debug("Dispatched batch", "id", batch.ID, "persisted", report.Persisted, "launched", report.Launched)
	}

	slog.Info("Processed batch", "id", batch.ID, "images", batch.Images, "skipped", batch.Skipped)
	return batch, nil
}

// GetBatch retrieves a batch by ID
func (s *Service) GetBatch(id string) (*Batch, error) {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return batch, nil
}

// ListBatches returns all batches, newest first
func (s *Service) ListBatches() ([]*Batch, error) {
	batches, err := s.db.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	return batches, nil
}

// LatestDocument reads back the document at the output location
func (s *Service) LatestDocument() ([]byte, error) {
	doc, err := s.dispatcher.Document()
	if err != nil {
		return nil, fmt.Errorf("getting latest document: %w", err)
	}
	return doc, nil
}
