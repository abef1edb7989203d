// Package extraction turns raw PDF bytes into plain text, falling back across
// several strategies when the cheaper ones produce unusable output.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/telemetry"
)

// ErrStrategyUnavailable is returned by a strategy whose tooling is missing.
var ErrStrategyUnavailable = errors.New("extraction strategy unavailable")

// Strategy extracts text from PDF bytes.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

// Candidate is the output of one strategy together with its quality.
type Candidate struct {
	Strategy string
	Text     string
	Quality  Quality
}

// Orchestrator runs the primary, secondary and OCR strategies in order and
// returns the best candidate.
type Orchestrator struct {
	primary   Strategy
	secondary Strategy
	ocr       Strategy
	checker   QualityChecker
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOCR sets the last-resort strategy. Without it OCR is skipped.
func WithOCR(s Strategy) Option {
	return func(o *Orchestrator) { o.ocr = s }
}

// WithQualityChecker overrides the readability threshold and vocabulary.
func WithQualityChecker(c QualityChecker) Option {
	return func(o *Orchestrator) { o.checker = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an Orchestrator over the primary and secondary strategies.
func NewOrchestrator(primary, secondary Strategy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		primary:   primary,
		secondary: secondary,
		checker:   DefaultQualityChecker(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Extract returns normalized text for data, or an error wrapping
// domain.ErrExtractionFailed when every strategy comes back empty.
func (o *Orchestrator) Extract(ctx context.Context, data []byte) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "extraction.extract", telemetry.SpanAttributes{Operation: "extract"})
	defer span.End()

	best := o.run(ctx, o.primary, data)
	if o.acceptable(best) {
		return o.finish(span, best)
	}

	if second := o.run(ctx, o.secondary, data); second.hasText() &&
		(!best.hasText() || second.Quality.Readability > best.Quality.Readability) {
		best = second
	}

	if !o.acceptable(best) && o.ocr != nil {
		ocr := o.run(ctx, o.ocr, data)
		if ocr.hasText() && (!best.hasText() || !ocr.Quality.Garbled || ocr.Quality.Readability > best.Quality.Readability) {
			best = ocr
		}
	}

	return o.finish(span, best)
}

func (o *Orchestrator) finish(span *telemetry.Span, best Candidate) (string, error) {
	text := Normalize(best.Text)
	if text == "" {
		err := fmt.Errorf("%w: all strategies returned empty text", domain.ErrExtractionFailed)
		span.SetError(err)
		return "", err
	}
	span.SetData("strategy", best.Strategy)
	span.SetData("chars", len(text))
	return text, nil
}

// hasText reports whether the candidate survives normalization with any text left.
func (c Candidate) hasText() bool {
	return strings.TrimSpace(c.Text) != ""
}

func (o *Orchestrator) acceptable(c Candidate) bool {
	return c.Text != "" && !c.Quality.Garbled && c.Quality.Readability >= o.checker.Threshold
}

func (o *Orchestrator) run(ctx context.Context, s Strategy, data []byte) Candidate {
	if s == nil {
		return Candidate{}
	}
	text, err := s.Extract(ctx, data)
	if errors.Is(err, ErrStrategyUnavailable) {
		o.logger.DebugContext(ctx, "extraction strategy skipped", "strategy", s.Name())
		return Candidate{Strategy: s.Name()}
	}
	if err != nil {
		o.logger.WarnContext(ctx, "extraction strategy failed", "strategy", s.Name(), "error", err)
		return Candidate{Strategy: s.Name()}
	}

	if strings.TrimSpace(text) == "" {
		return Candidate{Strategy: s.Name()}
	}

	c := Candidate{Strategy: s.Name(), Text: text, Quality: o.checker.Assess(text)}
	o.logger.DebugContext(ctx, "extraction strategy finished",
		"strategy", c.Strategy,
		"chars", len(text),
		"readability", c.Quality.Readability,
		"garbled", c.Quality.Garbled,
	)
	return c
}
