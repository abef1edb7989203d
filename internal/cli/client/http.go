package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	envAPIURL = "DOCQA_API_URL"

	defaultAPIURL = "http://localhost:8080"
	// Uploads wait for extraction, OCR and embedding on the server.
	defaultTimeout = 10 * time.Minute
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClientWithCmd resolves the server URL: --api-url flag, then DOCQA_API_URL, then the default.
func NewAPIClientWithCmd(cmd *cobra.Command) *APIClient {
	var baseURL string
	if cmd != nil {
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil {
			baseURL = flagURL
		}
	}
	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return NewAPIClient(baseURL, defaultTimeout)
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIResponse represents the standard API response format.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// APIError represents an error from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type UploadResult struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Chunks       int    `json:"chunks"`
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	MaxChunks  int    `json:"max_chunks,omitempty"`
	History    []Turn `json:"history,omitempty"`
}

type RetrievedChunk struct {
	ChunkID      int64   `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Section      string  `json:"section"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
}

type ChatResult struct {
	Response        string           `json:"response"`
	DocumentID      string           `json:"document_id"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks"`
}

type DeleteResult struct {
	DocumentID string `json:"document_id"`
	Removed    int    `json:"removed"`
}

func (c *APIClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *APIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	var out ChatResult
	if err := c.doJSON(ctx, http.MethodPost, "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteDocument(ctx context.Context, documentID string) (*DeleteResult, error) {
	var out DeleteResult
	if err := c.doJSON(ctx, http.MethodDelete, "/documents/"+documentID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile posts a PDF as multipart form data, reporting progress while the body is sent.
func (c *APIClient) UploadFile(ctx context.Context, filePath, documentID string, onProgress ProgressFunc) (*UploadResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if documentID != "" {
		if err := mw.WriteField("document_id", documentID); err != nil {
			return nil, err
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filePath)))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	size := int64(body.Len())
	reader := &progressReader{reader: &body, total: size, onProgress: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/upload", reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = size

	var out UploadResult
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *APIClient) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Code: apiResp.Code, Message: apiResp.Error}
	}

	if out != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
	}
	return nil
}

// ProgressFunc is a callback for reporting upload progress.
type ProgressFunc func(current, total int64)

// progressReader wraps an io.Reader and reports progress.
type progressReader struct {
	reader     io.Reader
	total      int64
	current    int64
	onProgress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	if pr.onProgress != nil {
		pr.onProgress(pr.current, pr.total)
	}
	return n, err
}
