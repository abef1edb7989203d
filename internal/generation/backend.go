// Package generation produces grounded answers from retrieved chunks using a
// pluggable language-model backend.
package generation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloo-solutions/docqa/internal/gemini"
	"github.com/cloo-solutions/docqa/internal/openai"
)

const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)

// Backend turns a prompt into answer text.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BackendConfig carries the settings of one backend.
type BackendConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Factory builds a Backend from its configuration.
type Factory func(ctx context.Context, cfg BackendConfig) (Backend, error)

// Registry maps backend names to factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows the openai, ollama and gemini backends.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(BackendOpenAI, newOpenAIBackend)
	r.Register(BackendOllama, newOllamaBackend)
	r.Register(BackendGemini, newGeminiBackend)
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Names lists the registered backends in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs the named backend.
func (r *Registry) Build(ctx context.Context, name string, cfg BackendConfig) (Backend, error) {
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown generation backend %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	b, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s backend: %w", name, err)
	}
	return b, nil
}

func newOpenAIBackend(_ context.Context, cfg BackendConfig) (Backend, error) {
	if cfg.APIKey == "" {
		return nil, openai.ErrNoAPIKey
	}
	return openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		ChatModel: cfg.Model,
		Timeout:   cfg.Timeout,
	}), nil
}

func newOllamaBackend(_ context.Context, cfg BackendConfig) (Backend, error) {
	return openai.NewClientWithConfig(openai.OllamaConfig(cfg.BaseURL, openai.Config{
		ChatModel: cfg.Model,
		Timeout:   cfg.Timeout,
	})), nil
}

func newGeminiBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	return gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
}
