// Package diagnose orchestrates failure diagnosis: it assembles a bounded
// temporal context window around a target event, consults the oracle, and
// optionally generates a source patch.
package diagnose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/oracle"
	"github.com/epilog-dev/epilog/internal/store"
)

// DefaultWindowSize is the number of preceding events given to the oracle.
const DefaultWindowSize = 5

// DefaultSourceFile is used when the target event carries no source hint.
const DefaultSourceFile = "agent.py"

// Engine runs the diagnosis loop for a target event.
type Engine struct {
	store       store.Store
	provider    oracle.Provider
	projectRoot string
	windowSize  int
}

// NewEngine creates a diagnosis engine. projectRoot may be empty, in which
// case patch generation is skipped.
func NewEngine(st store.Store, provider oracle.Provider, projectRoot string, windowSize int) *Engine {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Engine{
		store:       st,
		provider:    provider,
		projectRoot: projectRoot,
		windowSize:  windowSize,
	}
}

// ContextWindow returns up to windowSize events of the target's session with
// id strictly less than the target's, in ascending (chronological) order.
// A target with fewer prior events yields a shorter window; none is fine.
func (e *Engine) ContextWindow(ctx context.Context, target *domain.TraceEvent, windowSize int) ([]domain.TraceEvent, error) {
	if windowSize <= 0 {
		windowSize = e.windowSize
	}
	events, err := e.store.ListEventsBefore(ctx, target.SessionID, target.ID, windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load context window: %w", err)
	}
	// Store returns descending id order; reverse to chronological.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// Run performs one full diagnosis for the given event id. Returns
// store.ErrNotFound when the target does not exist. Oracle failures do not
// surface as errors: the provider converts them into fallback reports.
func (e *Engine) Run(ctx context.Context, eventID int64, windowSize int) (*domain.DiagnosisResult, error) {
	target, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	window, err := e.ContextWindow(ctx, target, windowSize)
	if err != nil {
		return nil, err
	}

	report := e.provider.Diagnose(ctx, window, target, target.Screenshot)

	result := &domain.DiagnosisResult{Diagnosis: report}
	if patch := e.generatePatch(ctx, target, report); patch != "" {
		result.Patch = &patch
	}
	return result, nil
}

// generatePatch is only attempted when a source file can be resolved under
// the configured project root. Any failure keeps the result patch-free.
func (e *Engine) generatePatch(ctx context.Context, target *domain.TraceEvent, report domain.DiagnosisReport) string {
	if e.projectRoot == "" {
		return ""
	}

	filePath := target.SourceFileHint()
	if filePath == "" {
		filePath = DefaultSourceFile
	}

	fullPath := filepath.Join(e.projectRoot, filePath)
	source, err := os.ReadFile(fullPath)
	if err != nil {
		log.Debug().Err(err).Str("path", fullPath).Msg("source file not readable, skipping patch generation")
		return ""
	}

	return e.provider.GeneratePatch(ctx, report, string(source), filePath)
}
