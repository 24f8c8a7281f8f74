package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pritam-ray/Personalized-chatbot/internal/websearch"
	"github.com/pritam-ray/Personalized-chatbot/pkg/auth"
	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
)

// QueryProcessor answers chat queries. Implemented by websearch.Service;
// tests substitute fakes.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, message string, history []websearch.Turn) websearch.Result
	ProcessQueryStream(ctx context.Context, message string, history []websearch.Turn, emit websearch.EmitFunc) websearch.Result
}

type Handler struct {
	processor QueryProcessor
	store     *ConversationStore
	logger    logging.Logger
}

func NewHandler(processor QueryProcessor, store *ConversationStore, logger logging.Logger) *Handler {
	return &Handler{
		processor: processor,
		store:     store,
		logger:    logger,
	}
}

// RegisterRoutes mounts the chat API on an authenticated router group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/chat/search", h.Search)
	group.POST("/chat/search/stream", h.SearchStream)

	group.GET("/conversations", h.ListConversations)
	group.POST("/conversations", h.CreateConversation)
	group.GET("/conversations/:id", h.GetConversation)
	group.DELETE("/conversations/:id", h.DeleteConversation)
	group.POST("/conversations/:id/messages", h.AddMessage)
	group.DELETE("/conversations/:id/messages/last", h.DeleteLastMessage)
}

type chatRequest struct {
	Message        string           `json:"message"`
	ConversationID string           `json:"conversationId"`
	History        []websearch.Turn `json:"history"`
}

// resolveHistory prefers stored conversation history over the client-sent
// one when a conversation ID is present.
func (h *Handler) resolveHistory(c *gin.Context, req chatRequest) ([]websearch.Turn, error) {
	if req.ConversationID == "" || h.store == nil {
		return req.History, nil
	}
	messages, err := h.store.RecentMessages(c.Request.Context(), auth.UserID(c), req.ConversationID)
	if err != nil {
		return nil, err
	}
	history := make([]websearch.Turn, 0, len(messages))
	for _, m := range messages {
		history = append(history, websearch.Turn{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

func (h *Handler) persistExchange(c *gin.Context, req chatRequest, result websearch.Result) {
	if req.ConversationID == "" || h.store == nil || !result.Success {
		return
	}
	userID := auth.UserID(c)
	ctx := c.Request.Context()
	if _, err := h.store.AddMessage(ctx, userID, req.ConversationID, "user", req.Message, false); err != nil {
		h.logStoreError(err)
		return
	}
	if _, err := h.store.AddMessage(ctx, userID, req.ConversationID, "assistant", result.Response, result.UsedWebSearch); err != nil {
		h.logStoreError(err)
	}
}

func (h *Handler) logStoreError(err error) {
	if h.logger != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to persist chat message")
	}
}

func (h *Handler) Search(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	history, err := h.resolveHistory(c, req)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	result := h.processor.ProcessQuery(c.Request.Context(), req.Message, history)
	h.persistExchange(c, req, result)
	c.JSON(http.StatusOK, result)
}

// SearchStream answers over SSE. Frames carry exactly one JSON object each;
// the stream always ends with either a done or an error frame.
func (h *Handler) SearchStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	history, err := h.resolveHistory(c, req)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	emit := func(event websearch.Event) error {
		frame, err := encodeFrame(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result := h.processor.ProcessQueryStream(c.Request.Context(), req.Message, history, emit)
	h.persistExchange(c, req, result)
}

func encodeFrame(event websearch.Event) ([]byte, error) {
	switch event.Kind {
	case websearch.EventStatus:
		return json.Marshal(gin.H{"status": event.Status})
	case websearch.EventToken:
		return json.Marshal(gin.H{"token": event.Token})
	case websearch.EventDone:
		return json.Marshal(gin.H{"done": true, "usedWebSearch": event.UsedWebSearch})
	case websearch.EventError:
		return json.Marshal(gin.H{"error": event.Err, "done": true})
	default:
		return nil, fmt.Errorf("unknown event kind %q", event.Kind)
	}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	// An empty body is fine; the title defaults to empty.
	_ = c.ShouldBindJSON(&req)

	conv, err := h.store.CreateConversation(c.Request.Context(), auth.UserID(c), req.Title)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) ListConversations(c *gin.Context) {
	conversations, err := h.store.ListConversations(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *Handler) GetConversation(c *gin.Context) {
	userID := auth.UserID(c)
	id := c.Param("id")

	conv, err := h.store.GetConversation(c.Request.Context(), userID, id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	messages, err := h.store.ListMessages(c.Request.Context(), userID, id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	if err := h.store.DeleteConversation(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type addMessageRequest struct {
	Role          string `json:"role"`
	Content       string `json:"content"`
	UsedWebSearch bool   `json:"usedWebSearch"`
}

func (h *Handler) AddMessage(c *gin.Context) {
	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Role != "user" && req.Role != "assistant" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be user or assistant"})
		return
	}
	if req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	msg, err := h.store.AddMessage(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Role, req.Content, req.UsedWebSearch)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) DeleteLastMessage(c *gin.Context) {
	if err := h.store.DeleteLastMessage(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	h.logStoreError(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
