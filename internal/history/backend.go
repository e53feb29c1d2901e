package history

import (
	"context"
	"errors"

	"github.com/ppiankov/verifica/internal/model"
)

// ErrNotFound is returned when no record has the requested id
var ErrNotFound = errors.New("history record not found")

// Backend is the persistence layer behind a Store.
// List must return records newest first (timestamp, then id, descending).
type Backend interface {
	Insert(ctx context.Context, result model.VerificationResult) (int64, error)
	Get(ctx context.Context, id int64) (model.VerificationResult, error)
	List(ctx context.Context) ([]model.VerificationResult, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	Close() error
}
