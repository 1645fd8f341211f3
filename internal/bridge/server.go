package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"foxden/internal/domain"
	"foxden/internal/managers"
	"foxden/internal/state"
	foxerr "foxden/pkg/errors"
	"foxden/pkg/logger"
)

// Managers bundles the six controllers the bridge dispatches into.
type Managers struct {
	Den      *managers.DenManager
	Channel  *managers.ChannelManager
	Chat     *managers.ChatManager
	Voice    *managers.VoiceManager
	User     *managers.UserManager
	Settings *managers.SettingsManager
}

// Server is the local shell bridge. It binds loopback only; this is
// window-to-core plumbing, not a network service.
type Server struct {
	store *state.Store
	mgr   Managers
	hub   *Hub
	log   *logger.Logger

	engine *gin.Engine
	http   *http.Server
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Loopback bridge; windows connect from the packaged shell.
	CheckOrigin: func(*http.Request) bool { return true },
}

func NewServer(store *state.Store, mgr Managers, hub *Hub, mode string, log *logger.Logger) *Server {
	if mode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		store:  store,
		mgr:    mgr,
		hub:    hub,
		log:    log.Named("bridge"),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.loggingMiddleware())
	s.routes()
	s.streamChanges()
	return s
}

// Run serves the bridge until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.log.Infof("listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// streamChanges forwards every store mutation to connected windows.
func (s *Server) streamChanges() {
	s.store.Subscribe(state.Wildcard, func(c state.Change) {
		payload, err := json.Marshal(c)
		if err != nil {
			s.log.Errorf("encoding change on %q: %v", c.Key, err)
			return
		}
		s.hub.Broadcast(payload)
	})
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.log.Infof("%s %s %d %s", method, path, c.Writer.Status(), time.Since(start).String())
	}
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.GET("/state", s.handleGetState)
	api.GET("/state/:key", s.handleGetKey)
	api.PUT("/state/:key", s.handleSetKey)

	api.POST("/dens", s.handleCreateDen)
	api.DELETE("/dens/:id", s.handleDeleteDen)
	api.POST("/dens/:id/leave", s.handleLeaveDen)
	api.POST("/dens/:id/activate", s.handleActivateDen)
	api.POST("/dens/:id/channels", s.handleCreateChannel)
	api.DELETE("/dens/:id/channels/:channelId", s.handleDeleteChannel)

	api.POST("/channels/:id/activate", s.handleActivateChannel)
	api.GET("/channels/:id/messages", s.handleGetMessages)
	api.POST("/channels/:id/messages", s.handleSendMessage)
	api.PATCH("/channels/:id/messages/:messageId", s.handleEditMessage)
	api.DELETE("/channels/:id/messages/:messageId", s.handleDeleteMessage)
	api.POST("/channels/:id/messages/:messageId/reactions", s.handleToggleReaction)

	api.POST("/voice/join/:id", s.handleJoinVoice)
	api.POST("/voice/leave", s.handleLeaveVoice)
	api.POST("/voice/mute", s.handleToggle(func() { s.mgr.Voice.ToggleMute() }))
	api.POST("/voice/deafen", s.handleToggle(func() { s.mgr.Voice.ToggleDeafen() }))
	api.POST("/voice/video", s.handleToggle(func() { s.mgr.Voice.ToggleVideo() }))
	api.POST("/voice/screenshare", s.handleToggle(func() { s.mgr.Voice.ToggleScreenShare() }))

	api.POST("/user/status", s.handleSetStatus)
	api.POST("/user/custom-status", s.handleSetCustomStatus)
	api.POST("/user/username", s.handleRename)
	api.PATCH("/user/settings", s.handleUpdateSettings)

	api.POST("/settings/open", s.handleOpenSettings)
	api.POST("/settings/close", s.handleToggle(func() { s.mgr.Settings.Close() }))
	api.POST("/settings/sidebar", s.handleToggle(func() { s.mgr.Settings.ToggleMembersSidebar() }))
	api.POST("/settings/theme", s.handleToggleTheme)

	s.engine.GET("/ws", s.handleWebsocket)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, foxerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, foxerr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, foxerr.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	c.JSON(status, NewErrorResponse(err.Error()))
}

func (s *Server) handleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, NewSuccessResponse(s.store.State()))
}

func (s *Server) handleGetKey(c *gin.Context) {
	c.JSON(http.StatusOK, NewSuccessResponse(s.store.Get(c.Param("key"))))
}

type setKeyRequest struct {
	Value   json.RawMessage `json:"value"`
	Persist *bool           `json:"persist"`
}

// handleSetKey accepts raw JSON values for the plain scalar/UI keys.
// Collection keys have dedicated operation routes; pushing arbitrary
// JSON into them would bypass the typed domain model.
func (s *Server) handleSetKey(c *gin.Context) {
	var req setKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	var value any
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			s.fail(c, foxerr.ErrInvalidInput)
			return
		}
	}
	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}
	s.store.Set(c.Param("key"), value, persist)
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

type createDenRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func (s *Server) handleCreateDen(c *gin.Context) {
	var req createDenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	den, err := s.mgr.Den.CreateDen(req.Name, req.Icon, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSuccessResponse(den))
}

func (s *Server) handleDeleteDen(c *gin.Context) {
	if err := s.mgr.Den.DeleteDen(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleLeaveDen(c *gin.Context) {
	if err := s.mgr.Den.LeaveDen(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleActivateDen(c *gin.Context) {
	s.store.SetActiveDen(c.Param("id"))
	c.JSON(http.StatusOK, NewSuccessResponse(s.store.Get(state.KeyActiveDen)))
}

type createChannelRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

func (s *Server) handleCreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	channel, err := s.mgr.Channel.CreateChannel(c.Param("id"), req.Name, domain.ChannelType(req.Type), req.Category)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSuccessResponse(channel))
}

func (s *Server) handleDeleteChannel(c *gin.Context) {
	if err := s.mgr.Channel.DeleteChannel(c.Param("id"), c.Param("channelId")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleActivateChannel(c *gin.Context) {
	s.store.SetActiveChannel(c.Param("id"))
	c.JSON(http.StatusOK, NewSuccessResponse(s.store.Get(state.KeyActiveChannel)))
}

func (s *Server) handleGetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, NewSuccessResponse(s.store.MessagesForChannel(c.Param("id"))))
}

type sendMessageRequest struct {
	Content    string             `json:"content"`
	Attachment *domain.Attachment `json:"attachment"`
}

// handleSendMessage posts into the active channel; the path id must
// match it so a stale window cannot post into a channel it already
// left.
func (s *Server) handleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	if active, _ := s.store.Get(state.KeyActiveChannel).(string); active != c.Param("id") {
		s.fail(c, foxerr.ErrNotFound)
		return
	}
	msg, err := s.mgr.Chat.SendMessage(req.Content, req.Attachment)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSuccessResponse(msg))
}

type editMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleEditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	if err := s.mgr.Chat.EditMessage(c.Param("id"), c.Param("messageId"), req.Content); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleDeleteMessage(c *gin.Context) {
	if err := s.mgr.Chat.DeleteMessage(c.Param("id"), c.Param("messageId")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (s *Server) handleToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	if err := s.mgr.Chat.ToggleReaction(c.Param("id"), c.Param("messageId"), req.Emoji); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleJoinVoice(c *gin.Context) {
	s.mgr.Voice.Join(c.Param("id"))
	c.JSON(http.StatusOK, NewSuccessResponse(s.store.Get(state.KeyActiveVoiceChannel)))
}

func (s *Server) handleLeaveVoice(c *gin.Context) {
	s.mgr.Voice.Leave()
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleToggle(toggle func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		toggle()
		c.JSON(http.StatusOK, NewSuccessResponse(true))
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	if err := s.mgr.User.SetStatus(req.Status); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

type customStatusRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSetCustomStatus(c *gin.Context) {
	var req customStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	s.mgr.User.SetCustomStatus(req.Text)
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

type renameRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleRename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	if err := s.mgr.User.Rename(req.Username); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		s.fail(c, foxerr.ErrInvalidInput)
		return
	}
	s.mgr.User.UpdateSettings(updates)
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

type openSettingsRequest struct {
	Tab string `json:"tab"`
}

func (s *Server) handleOpenSettings(c *gin.Context) {
	var req openSettingsRequest
	_ = c.ShouldBindJSON(&req)
	s.mgr.Settings.Open(req.Tab)
	c.JSON(http.StatusOK, NewSuccessResponse(true))
}

func (s *Server) handleToggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, NewSuccessResponse(s.mgr.Settings.ToggleTheme()))
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade: %v", err)
		return
	}
	client := NewClient(conn, s.hub)
	s.hub.Register(client)
	go client.WriteLoop()
	go client.ReadLoop()
}
