package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/telemetry"
)

type ChatService interface {
	Ask(ctx context.Context, input service.AskInput) (*service.AskResult, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message    string     `json:"message"`
	DocumentID string     `json:"document_id,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	MaxChunks  int        `json:"max_chunks,omitempty"`
	History    []ChatTurn `json:"history,omitempty"`
}

type RetrievedChunk struct {
	ChunkID      int64   `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	Section      string  `json:"section"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
}

type ChatResponse struct {
	Response        string           `json:"response"`
	DocumentID      string           `json:"document_id,omitempty"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Limit < 0 || req.MaxChunks < 0 {
		api.Error(w, http.StatusBadRequest, "limit and max_chunks must not be negative")
		return
	}

	history := make([]domain.ConversationTurn, 0, len(req.History))
	for _, turn := range req.History {
		role := domain.ConversationRole(strings.ToLower(turn.Role))
		if role != domain.RoleUser && role != domain.RoleAssistant {
			api.Error(w, http.StatusBadRequest, "history role must be user or assistant")
			return
		}
		history = append(history, domain.ConversationTurn{Role: role, Content: turn.Content})
	}

	if req.DocumentID != "" {
		telemetry.SetTag(r.Context(), "document_id", req.DocumentID)
	}

	result, err := h.svc.Ask(r.Context(), service.AskInput{
		Question:   req.Message,
		DocumentID: req.DocumentID,
		Limit:      req.Limit,
		MaxChunks:  req.MaxChunks,
		History:    history,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	retrieved := make([]RetrievedChunk, len(result.Retrieved))
	for i, res := range result.Retrieved {
		retrieved[i] = RetrievedChunk{
			ChunkID:      res.ChunkID,
			DocumentID:   res.DocumentID,
			DocumentName: res.DocumentName,
			Section:      res.Section,
			Content:      res.Content,
			Similarity:   res.Similarity,
		}
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Response:        result.Answer,
		DocumentID:      req.DocumentID,
		RetrievedChunks: retrieved,
	})
}
