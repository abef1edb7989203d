package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/generation"
	"github.com/cloo-solutions/docqa/internal/repository"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportText = "Revenue reached 1,200 in 2023.\n\nCash on hand was 300 at year end."

type fixedExtractor struct{ text string }

func (e fixedExtractor) Extract(context.Context, []byte) (string, error) { return e.text, nil }

// axisEmbedder scores text on a few keywords so retrieval is deterministic.
type axisEmbedder struct{}

func (axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	axes := []string{"revenue", "cash"}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		v := make([]float32, len(axes)+1)
		for j, a := range axes {
			v[j] = float32(strings.Count(lower, a))
		}
		v[len(axes)] = 0.1
		out[i] = v
	}
	return out, nil
}

type cannedBackend struct{ answer string }

func (b cannedBackend) Generate(context.Context, string) (string, error) { return b.answer, nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := service.NewEmbeddingStore(
		axisEmbedder{},
		repository.NewMemoryChunkCollection(repository.DistanceCosine),
		service.NewAtomicSequence(0),
	)
	answerer := generation.NewRouter("canned", cannedBackend{answer: "Revenue was 1,200."})
	svc := service.NewDocumentService(fixedExtractor{text: reportText}, store, answerer)

	return NewRouter(RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(svc),
		ChatHandler:     handlers.NewChatHandler(svc),
		MaxBodyBytes:    1 << 20,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func uploadRequest(t *testing.T, documentID string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("document_id", documentID))
	part, err := mw.CreateFormFile("file", "annual.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7\n%%EOF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "ok", data(t, w)["status"])
}

func TestRouter_UploadChatDelete(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "doc-1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	uploaded := data(t, w)
	assert.Equal(t, "doc-1", uploaded["document_id"])
	assert.Equal(t, "annual.pdf", uploaded["document_name"])
	assert.EqualValues(t, 2, uploaded["chunks"])

	w = httptest.NewRecorder()
	chat := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"What was revenue?","document_id":"doc-1"}`))
	router.ServeHTTP(w, chat)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	answered := data(t, w)
	assert.Equal(t, "Revenue was 1,200.", answered["response"])
	retrieved := answered["retrieved_chunks"].([]interface{})
	require.NotEmpty(t, retrieved)
	assert.Equal(t, "uploaded_chunk_1", retrieved[0].(map[string]interface{})["section"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, data(t, w)["removed"])

	w = httptest.NewRecorder()
	chat = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"What was revenue?","document_id":"doc-1"}`))
	router.ServeHTTP(w, chat)
	require.Equal(t, http.StatusOK, w.Code)
	answered = data(t, w)
	assert.Empty(t, answered["retrieved_chunks"])
	assert.Contains(t, answered["response"], "What was revenue?")
}

func TestRouter_UploadTooLarge(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", bytes.NewReader(make([]byte, 2<<20)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/knowledge", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
