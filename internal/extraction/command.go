package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec and returns their stdout.
type ExecRunner struct{}

// Run executes name with args. Stderr is folded into the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// LookPathFunc resolves a binary name, matching exec.LookPath.
type LookPathFunc func(file string) (string, error)

// available reports whether every binary resolves.
func available(look LookPathFunc, binaries ...string) bool {
	for _, b := range binaries {
		if _, err := look(b); err != nil {
			return false
		}
	}
	return true
}

// writeTemp stores data in a fresh temporary directory and returns the file
// path and a cleanup function.
func writeTemp(data []byte) (string, func(), error) {
	dir, err := os.MkdirTemp("", "docqa-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp pdf: %w", err)
	}
	return path, cleanup, nil
}

// InstallInstructions describes how to install the external tools.
func InstallInstructions() string {
	return `PDF fallback extraction requires poppler and tesseract:
  macOS:         brew install poppler tesseract
  Ubuntu/Debian: apt install poppler-utils tesseract-ocr
  Fedora:        dnf install poppler-utils tesseract`
}
