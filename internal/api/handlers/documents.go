package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

const multipartMemory = 8 << 20

var acceptedUploadTypes = map[string]bool{
	"":                         true,
	"application/pdf":          true,
	"application/octet-stream": true,
}

type DocumentService interface {
	Upload(ctx context.Context, input service.UploadInput) (*service.IngestResult, error)
	Delete(ctx context.Context, documentID string) int
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type UploadResponse struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Chunks       int    `json:"chunks"`
}

type DeleteResponse struct {
	DocumentID string `json:"document_id"`
	Removed    int    `json:"removed"`
}

// Upload accepts a multipart form with a "file" part and an optional
// "document_id" field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !acceptedUploadTypes[mediaType] {
		api.HandleError(w, domain.ErrUnsupportedMediaType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.svc.Upload(r.Context(), service.UploadInput{
		DocumentID: r.FormValue("document_id"),
		Filename:   header.Filename,
		Data:       data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	telemetry.SetTag(r.Context(), "document_id", result.DocumentID)
	api.Success(w, http.StatusCreated, UploadResponse{
		DocumentID:   result.DocumentID,
		DocumentName: result.DocumentName,
		Chunks:       result.Chunks,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "document id is required")
		return
	}

	removed := h.svc.Delete(r.Context(), documentID)
	api.Success(w, http.StatusOK, DeleteResponse{DocumentID: documentID, Removed: removed})
}
