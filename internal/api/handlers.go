// Package api exposes the conversation REST endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"simonchat/internal/apperr"
	"simonchat/internal/chat"
	"simonchat/internal/logger"
)

// Italian user-facing error messages, matching the UI's language.
const (
	msgListFailed    = "Errore nel recupero delle conversazioni"
	msgGetFailed     = "Errore nel recupero della conversazione"
	msgNotFound      = "Conversazione non trovata"
	msgInvalidBody   = "Dati non validi per la conversazione"
	msgDeleteFailed  = "Errore nell'eliminazione della conversazione"
	msgMessageFailed = "Errore nel processare il messaggio"
)

// Handler wires HTTP routes to the chat service.
type Handler struct {
	chat *chat.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{chat: chatService}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/conversations", h.listConversations)
	api.POST("/conversations", h.createConversation)
	api.GET("/conversations/:id", h.getConversation)
	api.DELETE("/conversations/:id", h.deleteConversation)
	api.POST("/conversations/:id/messages", h.postMessage)
}

func (h *Handler) listConversations(c *gin.Context) {
	conversations, err := h.chat.ListConversations(c.Request.Context())
	if err != nil {
		h.respondError(c, err, msgListFailed)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *Handler) getConversation(c *gin.Context) {
	conversation, messages, err := h.chat.GetConversationWithMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, msgGetFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation": conversation,
		"messages":     messages,
	})
}

type createConversationRequest struct {
	// Pointer so a missing title is rejected while an empty one falls back to
	// the default.
	Title *string `json:"title" binding:"required"`
}

func (h *Handler) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return
	}
	conversation, err := h.chat.StartConversation(c.Request.Context(), *req.Title)
	if err != nil {
		h.respondError(c, err, msgInvalidBody)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (h *Handler) deleteConversation(c *gin.Context) {
	if err := h.chat.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, msgDeleteFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) postMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": chat.ErrEmptyContent})
		return
	}
	userMessage, aiMessage, err := h.chat.PostMessage(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		h.respondError(c, err, msgMessageFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userMessage": userMessage,
		"aiMessage":   aiMessage,
	})
}

// respondError maps the closed error set onto HTTP statuses. fallback is the
// message for unexpected failures on this route.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var (
		validationErr *apperr.ValidationError
		notFoundErr   *apperr.NotFoundError
		generationErr *apperr.GenerationError
		storeFault    *apperr.StoreFault
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": validationErr.Reason})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"message": msgNotFound})
	case errors.As(err, &generationErr):
		logger.Errorw("reply generation failed", "path", c.Request.URL.Path, "err", generationErr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": generationErr.Message})
	case errors.As(err, &storeFault):
		logger.Errorw("store fault", "op", storeFault.Op, "err", storeFault.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	default:
		logger.Errorw("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
}
