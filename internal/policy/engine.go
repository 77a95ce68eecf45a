// Package policy gates patch application behind a rego policy, keeping
// filesystem writes inside the sanctioned project tree.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine for patch requests.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.patch_policy.deny"),
		rego.Module("patch_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// PatchInput is the policy input for one patch request.
type PatchInput struct {
	FilePath    string `json:"file_path"`
	DiffContent string `json:"diff_content"`
}

// Evaluate checks a patch request against the policy. Returns whether the
// request is allowed, and the first denial reason when it is not.
func (e *Engine) Evaluate(ctx context.Context, input PatchInput) (bool, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return true, "", nil
	}

	denials, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return false, "unexpected policy result shape", nil
	}
	if len(denials) == 0 {
		return true, "", nil
	}
	if reason, ok := denials[0].(string); ok {
		return false, reason, nil
	}
	return false, "denied by policy", nil
}

// DefaultPolicy is the default patch policy content.
const DefaultPolicy = `
package patch_policy

import rego.v1

deny contains msg if {
	contains(input.file_path, "..")
	msg := "path traversal is not allowed"
}

deny contains msg if {
	startswith(input.file_path, "/")
	msg := "absolute paths are not allowed"
}

deny contains msg if {
	not source_extension
	msg := "file extension is not patchable"
}

source_extension if {
	some ext in {".py", ".go", ".js", ".jsx", ".ts", ".tsx", ".java", ".rb", ".rs", ".c", ".cc", ".cpp", ".h", ".html", ".css", ".json", ".yaml", ".yml", ".toml", ".txt", ".md"}
	endswith(input.file_path, ext)
}
`
