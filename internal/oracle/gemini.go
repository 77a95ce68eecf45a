package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/epilog-dev/epilog/internal/domain"
)

const (
	// DefaultBaseURL is the Google AI Studio generateContent endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	// DefaultModel is used for both diagnosis and patch generation unless
	// overridden.
	DefaultModel = "gemini-3-flash-preview"
)

// GeminiProvider implements Provider against the Gemini generateContent API.
type GeminiProvider struct {
	apiKey         string
	baseURL        string
	diagnosisModel string
	patchModel     string
	httpClient     *http.Client
}

// GeminiOption configures a GeminiProvider.
type GeminiOption func(*GeminiProvider)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) GeminiOption {
	return func(p *GeminiProvider) { p.baseURL = strings.TrimSuffix(u, "/") }
}

// WithModels sets the diagnosis and patch model names.
func WithModels(diagnosis, patch string) GeminiOption {
	return func(p *GeminiProvider) {
		if diagnosis != "" {
			p.diagnosisModel = diagnosis
		}
		if patch != "" {
			p.patchModel = patch
		}
	}
}

// WithTimeout bounds each API call.
func WithTimeout(d time.Duration) GeminiOption {
	return func(p *GeminiProvider) {
		if d > 0 {
			p.httpClient.Timeout = d
		}
	}
}

// NewGeminiProvider creates a provider using the given API key.
func NewGeminiProvider(apiKey string, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		diagnosisModel: DefaultModel,
		patchModel:     DefaultModel,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure GeminiProvider implements Provider.
var _ Provider = (*GeminiProvider)(nil)

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

const diagnosisPromptFormat = `You are an expert AI debugger.
Analyze the following execution trace events leading up to a failure.

RECENT CONTEXT:
%s

TARGET EVENT (WHERE FAILURE OCCURRED):
%s

TASK:
Compare the 'thought' or 'action' in the target event with the provided screenshot (if any).
Identify if there is a mismatch between what the agent intended to do and what happened visually.

OUTPUT FORMAT:
Return a JSON object with:
- incident_summary: Concise description of the failure.
- visual_mismatch_identified: Boolean.
- explanation: Detailed explanation of the mismatch or failure.
- suggested_fix_logic: High-level logic required to fix the code.`

const patchPromptFormat = `You are an expert software engineer.
A multimodal agent failed with the following diagnosis:

DIAGNOSIS:
%s

FIX LOGIC:
%s

SOURCE CODE (from %s):
%s

TASK:
Generate a standard unified diff patch that fixes the bug.
The patch should be grounded in the visual mismatch identified.
Ensure the diff is valid and can be applied with the patch utility.

OUTPUT:
Return ONLY the raw unified diff string. No commentary.`

// Diagnose builds the multimodal prompt, calls the oracle once, and
// defensively parses its response. Never returns an error: failures become
// fallback reports.
func (p *GeminiProvider) Diagnose(ctx context.Context, events []domain.TraceEvent, target *domain.TraceEvent, screenshot []byte) domain.DiagnosisReport {
	contextJSON := serializeEvents(events)
	targetJSON := serializeEvents([]domain.TraceEvent{*target})

	parts := []part{{Text: fmt.Sprintf(diagnosisPromptFormat, contextJSON, targetJSON)}}
	if len(screenshot) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: sniffImageMIME(screenshot),
			Data:     base64.StdEncoding.EncodeToString(screenshot),
		}})
	}

	text, err := p.generateContent(ctx, p.diagnosisModel, parts)
	if err != nil {
		log.Warn().Err(err).Msg("diagnosis generation failed")
		return fallbackReport("AI Generation Error", fmt.Sprintf("Diagnosis generation failed: %v", err))
	}

	report, err := parseReport(text)
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse oracle response")
		return fallbackReport("AI Analysis Error", fmt.Sprintf("Failed to parse oracle response: %v", err))
	}
	return report
}

// GeneratePatch requests a unified diff for the diagnosed failure. Failures
// degrade to a human-readable error string.
func (p *GeminiProvider) GeneratePatch(ctx context.Context, report domain.DiagnosisReport, sourceCode, filePath string) string {
	prompt := fmt.Sprintf(patchPromptFormat, report.Explanation, report.SuggestedFixLogic, filePath, sourceCode)

	text, err := p.generateContent(ctx, p.patchModel, []part{{Text: prompt}})
	if err != nil {
		log.Warn().Err(err).Msg("patch generation failed")
		return fmt.Sprintf("Error generating patch: %v", err)
	}
	return strings.TrimSpace(stripFence(text, "diff"))
}

func (p *GeminiProvider) generateContent(ctx context.Context, model string, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", p.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("unexpected response shape: %s", truncateForError(respBody))
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// parseReport strips an optional markdown fence and decodes the report JSON.
func parseReport(text string) (domain.DiagnosisReport, error) {
	cleaned := stripFence(text, "json")
	var report domain.DiagnosisReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return domain.DiagnosisReport{}, err
	}
	return report, nil
}

// stripFence removes a markdown code fence wrapping the text, trying the
// tagged form (```json / ```diff) first, then any bare fence.
func stripFence(text, tag string) string {
	tagged := "```" + tag
	if idx := strings.Index(text, tagged); idx >= 0 {
		rest := text[idx+len(tagged):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if strings.Contains(text, "```") {
		segments := strings.Split(text, "```")
		if len(segments) > 1 {
			return strings.TrimSpace(segments[1])
		}
	}
	return strings.TrimSpace(text)
}

// sniffImageMIME determines the image format from the binary's leading
// bytes. Anything that is not PNG or GIF is treated as JPEG.
func sniffImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func fallbackReport(summary, explanation string) domain.DiagnosisReport {
	return domain.DiagnosisReport{
		IncidentSummary:          summary,
		VisualMismatchIdentified: false,
		Explanation:              explanation,
		SuggestedFixLogic:        "Manual review required.",
	}
}

func serializeEvents(events []domain.TraceEvent) string {
	views := make([]domain.StreamEvent, 0, len(events))
	for i := range events {
		views = append(views, domain.NewStreamEvent(&events[i]))
	}
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

func truncateForError(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
