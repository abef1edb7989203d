package extraction

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/semaphore"
)

// OCRConfig configures the OCR strategy.
type OCRConfig struct {
	Enabled     bool
	Language    string
	DPI         int
	Concurrency int64
}

// DefaultOCRConfig returns English OCR at 300 DPI with two concurrent jobs.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{Enabled: true, Language: "eng", DPI: 300, Concurrency: 2}
}

// OCRStrategy rasterizes pages with pdftoppm and recognizes them with tesseract.
type OCRStrategy struct {
	cfg      OCRConfig
	runner   CommandRunner
	lookPath LookPathFunc
	sem      *semaphore.Weighted
}

// NewOCRStrategy creates the OCR strategy. A nil runner uses ExecRunner.
func NewOCRStrategy(cfg OCRConfig, runner CommandRunner) *OCRStrategy {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &OCRStrategy{
		cfg:      cfg,
		runner:   runner,
		lookPath: exec.LookPath,
		sem:      semaphore.NewWeighted(cfg.Concurrency),
	}
}

func (s *OCRStrategy) Name() string { return "ocr" }

// Available reports whether OCR is enabled and its binaries are installed.
func (s *OCRStrategy) Available() bool {
	return s.cfg.Enabled && available(s.lookPath, "pdftoppm", "tesseract")
}

func (s *OCRStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	if !s.Available() {
		return "", ErrStrategyUnavailable
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)

	path, cleanup, err := writeTemp(data)
	if err != nil {
		return "", err
	}
	defer cleanup()

	prefix := filepath.Join(filepath.Dir(path), "page")
	if _, err := s.runner.Run(ctx, "pdftoppm", "-r", strconv.Itoa(s.cfg.DPI), "-png", path, prefix); err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w", err)
	}

	images, err := pageImages(filepath.Dir(path))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, len(images))
	for _, img := range images {
		out, err := s.runner.Run(ctx, "tesseract", img, "stdout", "-l", s.cfg.Language)
		if err != nil {
			return "", fmt.Errorf("tesseract failed on %s: %w", filepath.Base(img), err)
		}
		if page := strings.TrimSpace(string(out)); page != "" {
			pages = append(pages, page)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// pageImages lists the rendered page images in page order. pdftoppm pads page
// numbers to a width that depends on the page count, so order numerically.
func pageImages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list page images: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})
	return matches, nil
}

func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	n, err := strconv.Atoi(strings.TrimPrefix(base, "page-"))
	if err != nil {
		return 0
	}
	return n
}
