package oracle

import (
	"context"
	"fmt"

	"github.com/epilog-dev/epilog/internal/domain"
)

// MockProvider is a deterministic Provider for local development and tests.
// It never performs network I/O.
type MockProvider struct{}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var _ Provider = (*MockProvider)(nil)

// Diagnose returns a canned report describing the target event.
func (m *MockProvider) Diagnose(ctx context.Context, events []domain.TraceEvent, target *domain.TraceEvent, screenshot []byte) domain.DiagnosisReport {
	return domain.DiagnosisReport{
		IncidentSummary:          fmt.Sprintf("Mock diagnosis for %s event %d", target.EventType, target.ID),
		VisualMismatchIdentified: len(screenshot) > 0,
		Explanation: fmt.Sprintf("Mock analysis of %d context events preceding event %d. No real oracle was consulted.",
			len(events), target.ID),
		SuggestedFixLogic: "No fix required; this is a mock response.",
	}
}

// GeneratePatch returns an empty-change diff for the given file.
func (m *MockProvider) GeneratePatch(ctx context.Context, report domain.DiagnosisReport, sourceCode, filePath string) string {
	return fmt.Sprintf("--- a/%s\n+++ b/%s\n", filePath, filePath)
}
