package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/internal/apperr"
	"github.com/wavelength-ai/chat-insights/internal/middleware"
	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/internal/service"
	"github.com/wavelength-ai/chat-insights/internal/ws"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
	"github.com/wavelength-ai/chat-insights/pkg/metrics"
)

// WSHandler handles the realtime websocket endpoint.
type WSHandler struct {
	service  *service.ChatService
	hub      *ws.Hub
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(svc *service.ChatService, hub *ws.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{
		service: svc,
		hub:     hub,
		logger:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /chats/ws/{conversation_id}
//
// The connection is subscribed to the conversation's broadcasts. Inbound
// JSON messages go through the same submission path as POST /chats; each
// persisted turn is then pushed to every subscriber with attached insights.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := ws.NewSocketConn(raw)
	h.hub.Subscribe(conn, conversationID)
	metrics.IncWSConnections()

	h.logger.Info("websocket subscriber joined",
		zap.String("conversation_id", conversationID),
	)

	defer func() {
		h.hub.Unsubscribe(conn, conversationID)
		metrics.DecWSConnections()
		raw.Close()
		h.logger.Info("websocket subscriber left",
			zap.String("conversation_id", conversationID),
		)
	}()

	for {
		var msg model.Message
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		if msg.ConversationID == "" {
			msg.ConversationID = conversationID
		}

		// Same body limits as POST /chats, so the two submission surfaces
		// accept the same input.
		if msg.Body != "" {
			if verr := middleware.ValidateMessageBody(msg.Body); verr != nil {
				if werr := conn.WriteJSON(map[string]string{"error": verr.Error()}); werr != nil {
					return
				}
				continue
			}
		}

		resp, err := h.service.SubmitMessage(r.Context(), &msg)
		if err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) && appErr.Kind == apperr.KindValidation {
				// Bad frame; tell this client and keep the session alive.
				if werr := conn.WriteJSON(map[string]string{"error": appErr.Msg}); werr != nil {
					return
				}
				continue
			}

			h.logger.Error("websocket submission failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			conn.WriteClose(websocket.CloseInternalServerErr, "internal error")
			return
		}

		// Ack the submission back to the sender; broadcasts fan out to all
		// subscribers separately.
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
