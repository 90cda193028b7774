package photo

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Summary counts how a batch's sources fared
type Summary struct {
	Loaded  int
	Skipped int
}

// Orchestrator runs an ImageAnalyzer over a batch of sources
type Orchestrator struct {
	analyzer    ImageAnalyzer
	concurrency int
}

// NewOrchestrator creates a new Orchestrator analyzing up to concurrency
// images at once. A concurrency of 1 processes the batch strictly in order.
func NewOrchestrator(analyzer ImageAnalyzer, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// Run analyzes every source and returns one Record per source that could be
// loaded, in input order regardless of completion order. Sources that fail
// to load are skipped without a placeholder. If ctx ends first, no records
// are returned.
func (o *Orchestrator) Run(ctx context.Context, sources []Source) ([]Record, Summary, error) {
	// Each task writes only its own slot
	slots := make([]*Record, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := src.Load(gctx)
			if err != nil {
				slog.Warn("Skipping image that could not be loaded", "index", i, "name", src.Name(), "error", err)
				return nil
			}
			record := o.analyzer.Analyze(gctx, data)
			slots[i] = &record
			slog.Debug("Analyzed image", "index", i, "name", src.Name(), "size", len(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}
	// Analyzers swallow cancellation, so check once more before trusting the slots
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, err
	}

	records := make([]Record, 0, len(sources))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, Summary{Loaded: len(records), Skipped: len(sources) - len(records)}, nil
}
