// Package oracle provides the multimodal reasoning capability used for
// failure diagnosis and patch generation. The service depends only on the
// Provider interface, so the backing model is swappable at construction.
package oracle

import (
	"context"

	"github.com/epilog-dev/epilog/internal/domain"
)

// Provider is the capability set the diagnosis engine requires.
//
// Diagnose never fails: any API or parsing error is converted into a
// fallback report whose explanation carries the error description.
// GeneratePatch degrades to a human-readable error string the same way.
type Provider interface {
	Diagnose(ctx context.Context, events []domain.TraceEvent, target *domain.TraceEvent, screenshot []byte) domain.DiagnosisReport
	GeneratePatch(ctx context.Context, report domain.DiagnosisReport, sourceCode, filePath string) string
}
