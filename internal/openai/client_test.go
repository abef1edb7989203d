package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockOpenAIAPI) CreateChatCompletion(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func TestClient_Embed_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 3}

	ctx := context.Background()
	texts := []string{"Revenue grew.", "Costs fell."}
	expected := [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	mockAPI.On("CreateEmbeddings", ctx, texts).Return(expected, nil)

	embeddings, err := client.Embed(ctx, texts)

	assert.NoError(t, err)
	assert.Equal(t, expected, embeddings)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_EmptyText(t *testing.T) {
	client := NewClient("")

	_, err := client.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = client.Embed(context.Background(), []string{"ok", " "})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestClient_Embed_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"x"}).Return(nil, errors.New("API rate limit exceeded"))

	embeddings, err := client.Embed(context.Background(), []string{"x"})

	assert.Nil(t, embeddings)
	assert.ErrorContains(t, err, "failed to create embeddings")
	assert.ErrorContains(t, err, "rate limit")
}

func TestClient_Embed_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 4}

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{1, 2}}, nil)

	_, err := client.Embed(context.Background(), []string{"x"})

	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestClient_Generate(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, systemPrompt: "be brief"}

	mockAPI.On("CreateChatCompletion", mock.Anything, "be brief", "prompt").Return("answer", nil).Once()
	mockAPI.On("CreateChatCompletion", mock.Anything, "be brief", "bad").Return("", errors.New("503")).Once()

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)

	_, err = client.Generate(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to create chat completion")
}

func TestOllamaConfig(t *testing.T) {
	cfg := OllamaConfig("http://ollama:11434/", Config{ChatModel: "llama3.1"})

	assert.Equal(t, "http://ollama:11434/v1", cfg.BaseURL)
	assert.Equal(t, "ollama", cfg.APIKey)
	assert.Equal(t, "llama3.1", cfg.ChatModel)

	assert.Equal(t, DefaultOllamaURL+"/v1", OllamaConfig("", Config{}).BaseURL)
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key")

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)
	assert.Zero(t, client.dimensions)
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestOpenAIAdapter_AgainstCompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Input []string `json:"input"`
				Model string   `json:"model"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "nomic-embed-text", req.Model)
			assert.Equal(t, []string{"a", "b"}, req.Input)
			// returned out of order on purpose
			_, _ = w.Write([]byte(`{"object":"list","data":[
				{"object":"embedding","index":1,"embedding":[0.3,0.4]},
				{"object":"embedding","index":0,"embedding":[0.1,0.2]}],"model":"nomic-embed-text"}`))
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[
				{"index":0,"message":{"role":"assistant","content":"Revenue was 1,200."},"finish_reason":"stop"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClientWithConfig(OllamaConfig(srv.URL, Config{EmbeddingModel: "nomic-embed-text", ChatModel: "llama3.1"}))

	embeddings, err := client.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, embeddings)

	answer, err := client.Generate(context.Background(), "What was revenue?")
	require.NoError(t, err)
	assert.Equal(t, "Revenue was 1,200.", answer)
}
