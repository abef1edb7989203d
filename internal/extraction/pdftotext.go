package extraction

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PDFToTextStrategy runs poppler's pdftotext in layout mode, which keeps
// column alignment and therefore tables.
type PDFToTextStrategy struct {
	runner   CommandRunner
	lookPath LookPathFunc
}

// NewPDFToTextStrategy creates the secondary strategy. A nil runner uses ExecRunner.
func NewPDFToTextStrategy(runner CommandRunner) *PDFToTextStrategy {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PDFToTextStrategy{runner: runner, lookPath: exec.LookPath}
}

func (s *PDFToTextStrategy) Name() string { return "pdftotext" }

func (s *PDFToTextStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	if !available(s.lookPath, "pdftotext") {
		return "", ErrStrategyUnavailable
	}

	path, cleanup, err := writeTemp(data)
	if err != nil {
		return "", err
	}
	defer cleanup()

	out, err := s.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return layoutToText(string(out)), nil
}

// layoutToText converts form-feed separated layout output into rendered pages.
func layoutToText(out string) string {
	rawPages := strings.Split(out, "\f")
	pages := make([]Page, 0, len(rawPages))
	for _, raw := range rawPages {
		pages = append(pages, parseLayoutPage(raw))
	}
	return RenderPages(pages)
}
