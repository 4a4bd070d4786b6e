package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/irrlab/phigold/internal/codec"
)

// Producer computes one result value to be stored as a fixture.
//
// The computation itself lives outside this module; the runner consumes
// it only through the returned value. The context carries cancellation:
// a producer should return ctx.Err() when asked to stop.
type Producer func(ctx context.Context) (any, error)

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// Sequencer hands out logical sequence numbers for catalog rows.
// *Clock implements it for production; tests inject their own.
type Sequencer interface {
	Next() int64
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time. This is helpful when eyeballing a catalog.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns predetermined run identifiers for testing.
//
// This enables deterministic catalogs and golden comparisons: tests
// provide a known sequence of IDs and verify exact output.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via
// internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{
		ids: ids,
		idx: 0,
	}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed. Fail-fast catches test
// misconfiguration (more runs than the test expected).
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Runner drives producers and lands their results in a store, recording
// each run in a catalog when one is attached.
type Runner struct {
	store   *Store
	catalog *Catalog
	logger  *slog.Logger
	ids     IDGenerator
	clock   Sequencer
	version string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCatalog attaches a catalog; every run is recorded in it.
func WithCatalog(c *Catalog) RunnerOption {
	return func(r *Runner) { r.catalog = c }
}

// WithRunnerLogger selects the logger for run events.
// Defaults to slog.Default().
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithIDGenerator selects the run ID source.
// Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) RunnerOption {
	return func(r *Runner) { r.ids = g }
}

// WithClock selects the logical clock for catalog seq numbers.
// Defaults to a fresh Clock starting at 0.
func WithClock(s Sequencer) RunnerOption {
	return func(r *Runner) { r.clock = s }
}

// NewRunner creates a runner over a store.
func NewRunner(store *Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:   store,
		logger:  slog.Default(),
		ids:     UUIDv7Generator{},
		clock:   NewClock(),
		version: codec.FormatVersion,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunResult describes one completed run.
type RunResult struct {
	// RunID is the identifier assigned to this run.
	RunID string

	// Entry describes the stored fixture.
	Entry Entry

	// Seq is the catalog stamp; 0 when no catalog is attached.
	Seq int64
}

// Run executes the producer and stores its result under name.
//
// Cancellation is honored twice: the producer receives the context, and
// the runner re-checks it before anything touches the store, so a
// canceled run never writes.
func (r *Runner) Run(ctx context.Context, name string, p Producer) (RunResult, error) {
	runID := r.ids.Generate()
	r.logger.Info("fixture run started", "name", name, "run_id", runID)

	v, err := p(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("run %s: producer: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("run %s: %w", name, err)
	}

	entry, err := r.store.Put(name, v)
	if err != nil {
		return RunResult{}, fmt.Errorf("run %s: %w", name, err)
	}

	result := RunResult{RunID: runID, Entry: entry}
	if r.catalog != nil {
		result.Seq = r.clock.Next()
		rec := FixtureRecord{
			ID:            runID,
			Name:          entry.Name,
			Digest:        entry.Digest,
			FormatVersion: r.version,
			SizeBytes:     entry.Bytes,
			Seq:           result.Seq,
		}
		if err := r.catalog.RecordFixture(ctx, rec); err != nil {
			return RunResult{}, fmt.Errorf("run %s: %w", name, err)
		}
	}

	r.logger.Info("fixture run completed",
		"name", name,
		"run_id", runID,
		"digest", entry.Digest,
		"seq", result.Seq,
	)
	return result, nil
}
