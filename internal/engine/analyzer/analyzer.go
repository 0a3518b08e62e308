package analyzer

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gqlmap/internal/engine/coverage"
	"gqlmap/internal/engine/extract"
	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/engine/parser"
	"gqlmap/internal/engine/registry"
	"gqlmap/internal/engine/scanner"
	"gqlmap/internal/shared/observability"
)

// Options configure one analyzer instance. Scan options pass through to
// the usage scanner unchanged.
type Options struct {
	Scan scanner.Options
}

// Result is the output of one full analysis run.
type Result struct {
	RunID      string               `json:"runId"`
	StartedAt  time.Time            `json:"startedAt"`
	Duration   time.Duration        `json:"durationNs"`
	Operations []*graphql.Operation `json:"operations"`
	SSRUsages  []scanner.SSRUsage   `json:"ssrUsages,omitempty"`
	Coverage   coverage.Snapshot    `json:"coverage"`
}

// Analyzer wires extraction, the alias index, and the two-phase usage
// scan into one run over an enumerated file list. Each Analyzer owns
// its registry and coverage counters; build a fresh one per run so
// results never bleed between analyses.
type Analyzer struct {
	parser    *parser.Parser
	reg       *registry.Registry
	metrics   *coverage.Metrics
	extractor *extract.Extractor
	opts      Options
}

func New(opts Options) *Analyzer {
	p := parser.NewParser()
	reg := registry.New()
	metrics := &coverage.Metrics{}
	return &Analyzer{
		parser:    p,
		reg:       reg,
		metrics:   metrics,
		extractor: extract.New(p, reg, metrics),
		opts:      opts,
	}
}

// Registry exposes the operation registry for callers that feed it
// directly, e.g. tests or custom extractors.
func (a *Analyzer) Registry() *registry.Registry { return a.reg }

// Analyze runs extraction then the usage scan over files. Files are
// visited twice: once as potential declaration sources, once as
// potential consumers. Per-file failures degrade coverage counters
// instead of failing the run.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Result, error) {
	started := time.Now()
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}

	ctx, span := observability.Tracer.Start(ctx, "analyzer.Analyze", trace.WithAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	if err := a.extractAll(ctx, files); err != nil {
		return nil, err
	}
	observability.OperationsRegistered.Set(float64(a.reg.Len()))

	scan, err := scanner.New(a.parser, a.reg, a.metrics, a.opts.Scan)
	if err != nil {
		return nil, err
	}
	report, err := scan.Scan(ctx, files)
	if err != nil {
		return nil, err
	}

	result.Operations = a.reg.All()
	result.SSRUsages = report.SSRUsages()
	result.Coverage = a.metrics.Snapshot()
	result.Duration = time.Since(started)

	span.SetAttributes(
		attribute.Int("operations", len(result.Operations)),
		attribute.Int64("usages_coarse", report.Phase1Usages()),
		attribute.Int64("usages_precise", report.Phase2Usages()),
	)
	slog.Info("analysis complete",
		"run_id", result.RunID,
		"operations", len(result.Operations),
		"files", len(files),
		"duration", result.Duration)
	return result, nil
}

// extractAll feeds declaration sources to the extractor in file order
// so registry metadata stays deterministic across runs.
func (a *Analyzer) extractAll(ctx context.Context, files []string) error {
	ctx, span := observability.Tracer.Start(ctx, "analyzer.Extract", trace.WithAttributes(
		attribute.Int("files", len(files)),
	))
	defer span.End()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", path, "error", err)
			continue
		}
		a.extractor.ExtractFile(path, content)
	}
	span.SetAttributes(attribute.Int("operations", a.reg.Len()))
	return nil
}
