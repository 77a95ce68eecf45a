package service

import (
	"context"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/policy"
)

// Diagnose runs the diagnosis loop for a target event. Returns
// ErrOracleNotConfigured when no oracle credential is available, and
// store.ErrNotFound for unknown event ids. Oracle failures do not surface
// here: they arrive as fallback report content.
func (s *Service) Diagnose(ctx context.Context, eventID int64, windowSize int) (*domain.DiagnosisResult, error) {
	if s.engine == nil {
		return nil, ErrOracleNotConfigured
	}
	return s.engine.Run(ctx, eventID, windowSize)
}

// ApplyPatch checks the patch policy and applies the diff. Policy denials
// and applier failures both resolve to success=false with a message;
// only a missing project root is a hard error.
func (s *Service) ApplyPatch(ctx context.Context, req *domain.ApplyPatchRequest) (*domain.ApplyPatchResponse, error) {
	if s.config.ProjectPath == "" {
		return nil, ErrProjectRootNotConfigured
	}

	if s.policyEngine != nil {
		allowed, reason, err := s.policyEngine.Evaluate(ctx, policy.PatchInput{
			FilePath:    req.FilePath,
			DiffContent: req.DiffContent,
		})
		if err != nil {
			return &domain.ApplyPatchResponse{Success: false, Message: "policy evaluation failed: " + err.Error()}, nil
		}
		if !allowed {
			return &domain.ApplyPatchResponse{Success: false, Message: "blocked by patch policy: " + reason}, nil
		}
	}

	ok, message := s.applier.Apply(s.config.ProjectPath, req.FilePath, req.DiffContent)
	return &domain.ApplyPatchResponse{Success: ok, Message: message}, nil
}
