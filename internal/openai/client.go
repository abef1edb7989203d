package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultChatModel is the OpenAI model used for answers
	DefaultChatModel = "gpt-4.1-mini"
	// DefaultOllamaURL is the local Ollama server
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultTimeout bounds each API call
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrEmptyText is returned when a text to embed is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrEmptyResponse is returned when the API answers without content
	ErrEmptyResponse = errors.New("empty response from model")
)

// API is the subset of the OpenAI-compatible API used here
type API interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	CreateChatCompletion(ctx context.Context, system, prompt string) (string, error)
}

// Client wraps an OpenAI-compatible API for embeddings and chat
type Client struct {
	api          API
	dimensions   int
	systemPrompt string
}

// OpenAIAdapter implements API with go-openai
type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &OpenAIAdapter{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

// CreateEmbeddings embeds texts in one request and returns vectors in input order
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

// CreateChatCompletion sends a system and a user message and returns the reply
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel openai.EmbeddingModel
	ChatModel      string
	// Dimensions, when positive, is enforced on every embedding.
	Dimensions   int
	Timeout      time.Duration
	SystemPrompt string
}

// OllamaConfig points the client at an Ollama server's OpenAI-compatible endpoint.
func OllamaConfig(baseURL string, cfg Config) Config {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	if cfg.APIKey == "" {
		cfg.APIKey = "ollama"
	}
	return cfg
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	return &Client{
		api:          NewOpenAIAdapter(cfg),
		dimensions:   cfg.Dimensions,
		systemPrompt: cfg.SystemPrompt,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Embed generates one embedding per text in a single batch request
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, ErrEmptyText
		}
	}

	embeddings, err := c.api.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if c.dimensions > 0 {
		for _, e := range embeddings {
			if len(e) != c.dimensions {
				return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(e))
			}
		}
	}
	return embeddings, nil
}

// Generate answers prompt with the chat model
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.api.CreateChatCompletion(ctx, c.systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	return text, nil
}
