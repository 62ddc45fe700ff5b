// Package server exposes the chat glue over HTTP and websockets with gin.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Desarso/stockagent/docs"
	"github.com/Desarso/stockagent/logger"
	"github.com/Desarso/stockagent/sessions"
	"github.com/Desarso/stockagent/stores"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

const msgInternalError = "Error interno del servidor"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping() error
}

type Server struct {
	chat     *sessions.ChatService
	store    Pinger
	logger   *zap.Logger
	origins  []string
	upgrader websocket.Upgrader
}

// New builds a server. origins lists the allowed CORS origins; "*" allows any.
func New(chat *sessions.ChatService, store Pinger, origins []string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		chat:    chat,
		store:   store,
		logger:  log.Named("http"),
		origins: origins,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	return s
}

// Router registers every route on a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(logger.GinRecovery(s.logger), logger.GinLogger(s.logger), s.cors())

	r.GET("/healthz", s.health)
	r.GET("/swagger/doc.json", s.swaggerDoc)

	api := r.Group("/api")
	api.POST("/chat", s.postChat)
	api.GET("/conversations", s.listConversations)
	api.GET("/conversations/:id/messages", s.listMessages)
	api.DELETE("/conversations/:id", s.deleteConversation)
	api.GET("/ws", s.serveWebsocket)
	return r
}

func (s *Server) postChat(c *gin.Context) {
	var req sessions.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": sessions.ErrMissingFields.Error()})
		return
	}
	resp, err := s.chat.Send(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listConversations(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	list, err := s.chat.History(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) listMessages(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	msgs, err := s.chat.Messages(c.Request.Context(), userID, chatID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *Server) deleteConversation(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	if err := s.chat.Delete(c.Request.Context(), userID, chatID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) serveWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := sessions.NewAgentSession(uuid.NewString(), conn, s.chat, s.logger)
	if err := session.Run(c.Request.Context()); err != nil {
		s.logger.Debug("websocket session ended", zap.String("session_id", session.SessionID), zap.Error(err))
	}
}

func (s *Server) health(c *gin.Context) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) swaggerDoc(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

// fail maps service errors onto status codes and the texts the UI shows.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sessions.ErrMissingFields),
		errors.Is(err, sessions.ErrInvalidUserID),
		errors.Is(err, sessions.ErrInvalidChatID):
		c.JSON(http.StatusBadRequest, gin.H{"error": sessions.PublicError(err)})
	case errors.Is(err, sessions.ErrUnknownUser),
		errors.Is(err, stores.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": sessions.PublicError(err)})
	default:
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
	}
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falta userId"})
		return 0, false
	}
	return id, true
}

func chatIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": sessions.ErrInvalidChatID.Error()})
		return 0, false
	}
	return uint(id), true
}
