package domain

// DiagnosisReport is the structured output of one diagnosis request.
type DiagnosisReport struct {
	IncidentSummary          string `json:"incident_summary"`
	VisualMismatchIdentified bool   `json:"visual_mismatch_identified"`
	Explanation              string `json:"explanation"`
	SuggestedFixLogic        string `json:"suggested_fix_logic"`
}

// DiagnosisResult bundles a report with an optional generated patch.
type DiagnosisResult struct {
	Diagnosis DiagnosisReport `json:"diagnosis"`
	Patch     *string         `json:"patch"`
}

// ApplyPatchRequest asks for a unified diff to be applied to a file under
// the configured project root.
type ApplyPatchRequest struct {
	FilePath    string `json:"file_path"`
	DiffContent string `json:"diff_content"`
}

// ApplyPatchResponse reports the outcome of a patch application.
type ApplyPatchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
