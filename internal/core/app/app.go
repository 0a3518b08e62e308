package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gqlmap/internal/core/config"
	"gqlmap/internal/data/history"
	"gqlmap/internal/engine/analyzer"
	"gqlmap/internal/engine/scanner"
	"gqlmap/internal/shared/util"
	"gqlmap/internal/watcher"
)

// App wires the analysis engine to the outside world: repository
// enumeration, run outputs, run history, and watch mode.
type App struct {
	Config *config.Config

	history *history.Store
	limiter *util.Limiter

	updateMu sync.RWMutex
	onUpdate func(*analyzer.Result)

	resultMu   sync.RWMutex
	lastResult *analyzer.Result
}

func New(cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		limiter: util.NewLimiter(cfg.Watch.RescansPerSecond, 1),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.history = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// SetUpdateHandler registers a callback invoked after each completed
// run; the UI uses it to refresh its operation list.
func (a *App) SetUpdateHandler(handler func(*analyzer.Result)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) LastResult() *analyzer.Result {
	a.resultMu.RLock()
	defer a.resultMu.RUnlock()
	return a.lastResult
}

func (a *App) analyzerOptions() analyzer.Options {
	return analyzer.Options{
		Scan: scanner.Options{
			Indicators:        a.Config.Scan.Indicators,
			ExtraHookPatterns: a.Config.Scan.ExtraHooks,
			AliasRegexCap:     a.Config.Scan.AliasRegexCap,
			BatchSize:         a.Config.Scan.BatchSize,
			Parallelism:       a.Config.Scan.Parallelism,
		},
	}
}

// RunOnce performs one full analysis of the configured roots and
// writes the configured outputs.
func (a *App) RunOnce(ctx context.Context) (*analyzer.Result, error) {
	start := time.Now()

	roots := util.UniqueScanRoots(a.Config.Roots)
	files, err := a.ScanDirectories(roots, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return nil, err
	}

	result, err := analyzer.New(a.analyzerOptions()).Analyze(ctx, files)
	if err != nil {
		return nil, err
	}

	if a.Config.Output.JSON != "" {
		if err := a.WriteJSONReport(result); err != nil {
			slog.Error("failed to write json report", "path", a.Config.Output.JSON, "error", err)
		}
	}
	a.saveHistory(result)
	a.PrintSummary(result, len(files), time.Since(start))

	a.resultMu.Lock()
	a.lastResult = result
	a.resultMu.Unlock()
	a.emitUpdate(result)

	return result, nil
}

// HandleChanges re-runs the analysis after watch events. Rebuilding
// from scratch keeps usage counts correct when a consumer file is
// deleted; the rate limiter keeps save-storms from stacking runs.
func (a *App) HandleChanges(paths []string) {
	if !a.limiter.Allow(1) {
		slog.Debug("rescan suppressed by rate limit", "changes", len(paths))
		return
	}

	slog.Info("detected changes", "count", len(paths))
	if _, err := a.RunOnce(context.Background()); err != nil {
		slog.Error("rescan failed", "error", err)
	}
}

func (a *App) StartWatcher() error {
	w, err := watcher.New(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	return w.Watch(a.Config.Roots)
}

func (a *App) emitUpdate(result *analyzer.Result) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(result)
	}
}

func (a *App) saveHistory(result *analyzer.Result) {
	if a.history == nil {
		return
	}

	used, usages := 0, 0
	for _, op := range result.Operations {
		if len(op.UsedIn) > 0 {
			used++
		}
		usages += len(op.UsedIn)
	}

	snapshot := history.RunSnapshot{
		RunID:                result.RunID,
		Timestamp:            result.StartedAt,
		OperationCount:       len(result.Operations),
		UsedOperationCount:   used,
		UnusedOperationCount: len(result.Operations) - used,
		UsageCount:           usages,
		FilesScanned:         result.Coverage.FilesScanned,
		ParseFailures:        result.Coverage.ParseFailures,
		GraphQLParseFailures: result.Coverage.GraphQLParseFailures,
		CodegenExportsFound:  result.Coverage.CodegenExportsFound,
	}
	if err := a.history.SaveRun("default", snapshot); err != nil {
		slog.Error("failed to save run history", "error", err)
	}
}
