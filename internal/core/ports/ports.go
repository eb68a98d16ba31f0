package ports

import (
	"context"
	"time"

	"fluentgen/internal/data/catalog"
	"fluentgen/internal/engine/derive"
	"fluentgen/internal/model"
)

// DeclarationSource yields adapter handles for one kind of input: Java
// compilation units, go/types symbols or reflect types.
type DeclarationSource interface {
	Name() string
	Handles(ctx context.Context) ([]any, error)
}

// Emitter receives every derived family once a run has finished deriving.
// Rendering text is the emitter's business.
type Emitter interface {
	Emit(ctx context.Context, family *derive.Family) error
}

// CatalogStore persists a snapshot of the repository after each run.
type CatalogStore interface {
	SaveRun(ctx context.Context, run catalog.Run, defs []*model.TypeDef) error
	Runs(ctx context.Context, limit int) ([]catalog.Run, error)
	Compare(ctx context.Context, fromRun, toRun string) (catalog.Diff, error)
	Close() error
}

// RunRequest starts a generation pass. Changed lists the paths that
// triggered it; empty means a full initial run.
type RunRequest struct {
	Changed []string
}

// Failure is one declaration that could not be adapted or derived.
type Failure struct {
	Type    string
	Stage   string
	Code    string
	Message string
}

// RunResult summarizes a completed generation pass.
type RunResult struct {
	RunID        string
	Started      time.Time
	Duration     time.Duration
	Handles      int
	Declarations int
	Placeholders int
	Selected     int
	Derived      int
	Conflicts    int
	Cycles       [][]string
	Failures     []Failure
	Written      []string
	Diff         *catalog.Diff
}

// GenerationService is the driving port the CLI uses.
type GenerationService interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
	Watch(ctx context.Context, handler func(RunResult, error)) error
}
