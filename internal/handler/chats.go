// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wavelength-ai/chat-insights/internal/middleware"
	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/internal/service"
	"github.com/wavelength-ai/chat-insights/internal/store"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
)

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /chats
//
// The response always carries both turns: the stored message and the bot
// reply, which is null for bot-authored submissions or when synthesis
// degrades.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var msg model.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg.Body != "" {
		if err := middleware.ValidateMessageBody(msg.Body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if msg.ConversationID != "" {
		if err := middleware.ValidateConversationID(msg.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if msg.UserID != "" {
		if err := middleware.ValidateUserID(msg.UserID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.service.SubmitMessage(r.Context(), &msg)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetConversation handles GET /chats/{conversation_id}
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := store.MessageQuery{
		ConversationID: conversationID,
		SearchText:     r.URL.Query().Get("search_query"),
	}

	startTime, err := parseTimeParam(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	q.StartTime = startTime

	endTime, err := parseTimeParam(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	q.EndTime = endTime

	messages, err := h.service.GetConversation(r.Context(), q)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// UserMessages handles GET /chats/users/{user_id}/messages
func (h *ChatHandler) UserMessages(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = parsed
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	resp, err := h.service.GetUserMessages(r.Context(), userID, page, limit)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Summarize handles POST /chats/summarize
func (h *ChatHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req model.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	summary, err := h.service.Summarize(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Delete handles DELETE /chats/{conversation_id}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteConversation(r.Context(), conversationID); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "conversation deleted successfully",
	})
}

// parseTimeParam reads an optional RFC3339 (or date-only) query parameter.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
