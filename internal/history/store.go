package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/verifica/internal/model"
)

// Store is the claim history. It stamps records on insert and pushes a fresh
// snapshot to every watcher after each successful mutation.
type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	// writeMu orders mutations with their snapshots
	writeMu sync.Mutex

	mu       sync.Mutex
	watchers map[int]chan []model.VerificationResult
	nextID   int
	closed   bool
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for insert timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store over the given backend
func New(backend Backend, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend:  backend,
		logger:   logger,
		now:      time.Now,
		watchers: make(map[int]chan []model.VerificationResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a store for the configured driver
func Open(ctx context.Context, cfg model.HistoryConfig, logger *zap.Logger) (*Store, error) {
	switch cfg.Driver {
	case "memory":
		return New(NewMemoryBackend(), logger), nil
	case "sqlite", "":
		backend, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		s := New(backend, logger)
		s.logger.Debug("history database opened", zap.String("path", backend.Path()))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history driver: %s", cfg.Driver)
	}
}

// Insert records a verdict and returns its id. The timestamp is assigned
// here; any id or timestamp on the argument is ignored.
func (s *Store) Insert(ctx context.Context, result model.VerificationResult) (int64, error) {
	stored, err := s.Record(ctx, result)
	if err != nil {
		return 0, err
	}
	return stored.ID, nil
}

// Record inserts a verdict and returns it as stored, with its id and
// timestamp assigned.
func (s *Store) Record(ctx context.Context, result model.VerificationResult) (model.VerificationResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result.ID = 0
	result.Timestamp = s.now().UnixMilli()
	if result.Citations == nil {
		result.Citations = []model.Citation{}
	}

	id, err := s.backend.Insert(ctx, result)
	if err != nil {
		return model.VerificationResult{}, err
	}
	result.ID = id

	s.logger.Debug("history record inserted", zap.Int64("id", id), zap.String("rating", result.Rating.String()))
	s.publish(ctx)
	return result, nil
}

// Get returns a single record or ErrNotFound
func (s *Store) Get(ctx context.Context, id int64) (model.VerificationResult, error) {
	return s.backend.Get(ctx, id)
}

// List returns all records, newest first
func (s *Store) List(ctx context.Context) ([]model.VerificationResult, error) {
	return s.backend.List(ctx)
}

// Watch returns a channel carrying the full history, newest first. The
// current list is delivered immediately, then a new snapshot after every
// mutation. A slow reader only sees the latest snapshot. The channel is
// closed when ctx ends or the store is closed. Snapshots are shared and
// must not be modified.
func (s *Store) Watch(ctx context.Context) (<-chan []model.VerificationResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan []model.VerificationResult, 1)
	ch <- snapshot

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, nil
	}
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	context.AfterFunc(ctx, func() {
		s.unwatch(id)
	})

	return ch, nil
}

// DeleteByID removes a record. Deleting an unknown id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Debug("history record deleted", zap.Int64("id", id))
	s.publish(ctx)
	return nil
}

// Clear removes every record
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Clear(ctx); err != nil {
		return err
	}

	s.logger.Debug("history cleared")
	s.publish(ctx)
	return nil
}

// Close closes all watch channels and the backend
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.mu.Unlock()

	return s.backend.Close()
}

func (s *Store) unwatch(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.watchers[id]; ok {
		delete(s.watchers, id)
		close(ch)
	}
}

// publish sends the current list to every watcher. Called with writeMu held.
func (s *Store) publish(ctx context.Context) {
	s.mu.Lock()
	n := len(s.watchers)
	s.mu.Unlock()
	if n == 0 {
		return
	}

	// The mutation already committed; a cancelled caller must not stop
	// watchers from seeing it.
	snapshot, err := s.backend.List(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Warn("history snapshot failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
