package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/middleware"
	"github.com/toybox/toybox-api/internal/pkg/response"
	"github.com/toybox/toybox-api/internal/pkg/validator"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// SendMessageRequest represents message creation input
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	Body        string    `json:"body" validate:"required,max=2000"`
}

// Handler handles chat HTTP and WebSocket requests
type Handler struct {
	repo     Repository
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates new chat handler
func NewHandler(repo Repository, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		repo: repo,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// ListConversations handles GET /chat/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conversations, err := h.repo.ListConversations(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list conversations")
		response.InternalError(w)
		return
	}

	response.OK(w, conversations)
}

// GetMessages handles GET /chat/messages?peer=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	peerID, err := uuid.Parse(r.URL.Query().Get("peer"))
	if err != nil {
		response.BadRequest(w, "Invalid or missing peer ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	messages, total, err := h.repo.ListBetween(r.Context(), userID, peerID, page, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list messages")
		response.InternalError(w)
		return
	}

	// Opening the history marks the peer's messages as read.
	if err := h.repo.MarkRead(r.Context(), userID, peerID); err != nil {
		log.Warn().Err(err).Msg("Failed to mark messages read")
	} else {
		h.hub.SendToUser(peerID, &WSEvent{Type: EventRead, SenderID: userID})
	}

	response.WithMeta(w, messages, response.NewMeta(total, page, limit))
}

// SendMessage handles POST /chat/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if req.RecipientID == userID {
		response.BadRequest(w, "Cannot message yourself")
		return
	}

	msg := &Message{
		ID:          uuid.New(),
		SenderID:    userID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
	}

	if err := h.repo.Create(r.Context(), msg); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to store message")
		response.InternalError(w)
		return
	}

	h.hub.SendToUser(req.RecipientID, &WSEvent{
		Type:     EventNewMessage,
		SenderID: userID,
		Message:  msg,
	})

	response.Created(w, msg)
}

// WebSocket handles GET /ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Connection{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.wsReader(client)
	go h.wsWriter(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Inbound frames carry no commands; messages go through the REST
	// endpoint. The read loop exists to notice disconnects and pongs.
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RegisterRoutes registers the REST chat routes, all behind auth. The
// WebSocket endpoint is mounted separately so the token can arrive as a
// query parameter.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/chat/conversations", handler.ListConversations)
		r.Get("/chat/messages", handler.GetMessages)
		r.Post("/chat/messages", handler.SendMessage)
	})
}
