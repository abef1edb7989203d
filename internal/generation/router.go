package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxChunks is the number of chunks placed in a prompt.
	DefaultMaxChunks = 3
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 60 * time.Second

	// FallbackMessage is returned when the backend fails or answers with nothing.
	FallbackMessage = "I'm sorry, I couldn't generate an answer right now. Please try again in a moment."
)

var errEmptyAnswer = errors.New("backend returned an empty answer")

// NoContextMessage is returned, without calling the backend, when no chunk was retrieved.
func NoContextMessage(question string) string {
	return fmt.Sprintf("I could not find any relevant information in the uploaded documents for your question:\n%q", strings.TrimSpace(question))
}

// Router sends grounded prompts to one backend chosen at construction.
type Router struct {
	backend Backend
	name    string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRateLimit caps backend calls per second. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) RouterOption {
	return func(r *Router) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a Router over backend; name is used in logs and spans.
func NewRouter(name string, backend Backend, opts ...RouterOption) *Router {
	r := &Router{
		backend: backend,
		name:    name,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the configured backend name.
func (r *Router) Backend() string { return r.name }

// Answer produces a grounded answer from at most maxChunks chunks and returns
// the chunks placed in the prompt. It never fails: backend errors and empty
// answers yield FallbackMessage. Without chunks the backend is not called and
// no chunks are reported as used.
func (r *Router) Answer(ctx context.Context, question string, chunks []domain.Chunk, history []domain.ConversationTurn, maxChunks int) (string, []domain.Chunk) {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	if len(chunks) == 0 {
		return NoContextMessage(question), []domain.Chunk{}
	}

	ctx, span := telemetry.StartSpan(ctx, "generation.answer", telemetry.SpanAttributes{Backend: r.name, Operation: "answer"})
	defer span.End()
	span.SetData("chunks", len(chunks))

	answer, err := r.generate(ctx, BuildPrompt(question, chunks, history))
	if err != nil {
		r.logger.ErrorContext(ctx, "generation backend failed",
			"backend", r.name,
			"question", question,
			"chunks", len(chunks),
			"error", err,
		)
		telemetry.AddBreadcrumb(ctx, "generation", fmt.Sprintf("backend %s failed with %d chunks", r.name, len(chunks)))
		telemetry.CaptureError(ctx, fmt.Errorf("generation backend %s: %w", r.name, err))
		span.SetError(err)
		return FallbackMessage, chunks
	}
	return answer, chunks
}

func (r *Router) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	answer, err := r.backend.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errEmptyAnswer
	}
	return answer, nil
}
