// Package patch applies unified-diff patches to files under a sanctioned
// project root.
package patch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Applier applies textual unified diffs via the external patch utility.
// Apply never panics and never returns an error: every outcome is a
// boolean plus a message for the caller to surface.
type Applier struct{}

// NewApplier creates a patch applier.
func NewApplier() *Applier {
	return &Applier{}
}

// Apply resolves relPath under projectRoot and applies diffContent to it.
// Fails closed when the resolved file does not exist under the root; the
// temporary diff file is removed on every exit path.
func (a *Applier) Apply(projectRoot, relPath, diffContent string) (bool, string) {
	fullPath, ok := resolveUnderRoot(projectRoot, relPath)
	if !ok {
		return false, fmt.Sprintf("file path %q escapes the project root", relPath)
	}
	if _, err := os.Stat(fullPath); err != nil {
		return false, fmt.Sprintf("target file %q not found under project root", relPath)
	}

	tmp, err := os.CreateTemp("", "epilog-*.diff")
	if err != nil {
		return false, fmt.Sprintf("failed to create temp diff file: %v", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(diffContent); err != nil {
		tmp.Close()
		return false, fmt.Sprintf("failed to write temp diff file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Sprintf("failed to close temp diff file: %v", err)
	}

	cmd := exec.Command("patch", "-u", fullPath, "-i", tmpPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn().Err(err).Str("file", relPath).Str("output", string(output)).Msg("patch utility failed")
		return false, fmt.Sprintf("patch failed: %s", strings.TrimSpace(string(output)))
	}

	return true, "Patch applied successfully."
}

// resolveUnderRoot joins relPath to root and verifies the result stays
// inside it. Absolute paths and traversal via .. are rejected.
func resolveUnderRoot(root, relPath string) (string, bool) {
	if root == "" || relPath == "" || filepath.IsAbs(relPath) {
		return "", false
	}
	full := filepath.Join(root, relPath)
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", false
	}
	if fullAbs != rootAbs && !strings.HasPrefix(fullAbs, rootAbs+string(filepath.Separator)) {
		return "", false
	}
	return fullAbs, true
}
