package oracle

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// EnvEpilogMode is the environment variable name for mode selection.
	EnvEpilogMode = "EPILOG_MODE"
	// ModeMock indicates the mock provider should be used.
	ModeMock = "MOCK"
)

// NewProvider creates an oracle provider based on the EPILOG_MODE
// environment variable. If EPILOG_MODE=MOCK, returns a MockProvider;
// otherwise returns a Gemini provider, or nil when no API key is
// configured (the service reports that as a misconfiguration).
func NewProvider(apiKey, diagnosisModel, patchModel string, timeout time.Duration) Provider {
	if os.Getenv(EnvEpilogMode) == ModeMock {
		log.Info().Msg("EPILOG_MODE=MOCK detected, using mock oracle provider")
		return NewMockProvider()
	}
	if apiKey == "" {
		return nil
	}
	return NewGeminiProvider(apiKey,
		WithModels(diagnosisModel, patchModel),
		WithTimeout(timeout),
	)
}
