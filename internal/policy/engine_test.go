package policy

import (
	"context"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}
	return engine
}

func TestEvaluateAllowsSourceFiles(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	for _, p := range []string{"agent.py", "pkg/handler.go", "web/index.html", "config.yaml"} {
		allowed, reason, err := engine.Evaluate(ctx, PatchInput{FilePath: p, DiffContent: "diff"})
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", p, err)
		}
		if !allowed {
			t.Fatalf("expected %q to be allowed, got denial: %s", p, reason)
		}
	}
}

func TestEvaluateBlocksUnsafePaths(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	cases := []string{
		"../secrets.py",
		"a/../../b.py",
		"/etc/passwd.py",
		"binary.exe",
		"agent",
	}
	for _, p := range cases {
		allowed, reason, err := engine.Evaluate(ctx, PatchInput{FilePath: p, DiffContent: "diff"})
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", p, err)
		}
		if allowed {
			t.Fatalf("expected %q to be blocked", p)
		}
		if reason == "" {
			t.Fatalf("expected a denial reason for %q", p)
		}
	}
}
