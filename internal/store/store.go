package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-engine/internal/model"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = eris.New("store: not found")

// Store defines the durable storage tier consulted after in-memory state
// is evicted. Completed analysis results are independent records keyed by
// job id; the knowledge collection is one aggregate snapshot keyed by
// engine instance.
type Store interface {
	// Analysis results
	SaveResult(ctx context.Context, job *model.Job) error
	GetResult(ctx context.Context, jobID string) (*model.Job, error)

	// Knowledge snapshots
	SaveKnowledge(ctx context.Context, instance string, records []model.KnowledgeRecord) error
	LoadKnowledge(ctx context.Context, instance string) ([]model.KnowledgeRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
