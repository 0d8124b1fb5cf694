package handler

import (
	"context"
	"encoding/json"
	"strings"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/service"
	internalWS "memory-beads-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// StreamHandler serves the live journal stream: journal updates after every
// committed change plus echo frames while a question rotates.
type StreamHandler struct {
	journal   service.IJournalService
	echo      service.IEchoService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewStreamHandler(journal service.IJournalService, echo service.IEchoService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		journal:   journal,
		echo:      echo,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/stream/v1/ws", h.ServeWs)
}

// ServeWs authenticates the handshake and upgrades it. Browsers pass the
// token as ?token=, other clients may use the Authorization header.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr, _ = strings.CutPrefix(c.Get("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}

	subject, err := serverutils.ParseUserId(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("StreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	userId, err := uuid.Parse(subject)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID format in token")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.session(conn, userId)
	})(c)
}

func (h *StreamHandler) session(conn *websocket.Conn, userId uuid.UUID) {
	snapshot, err := h.journal.Snapshot(context.Background(), userId)
	if err != nil {
		h.logger.Error("StreamHandler", "Failed to load journal for stream", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return
	}

	h.echo.Attach(userId, snapshot)
	defer h.echo.Detach(userId)

	initial, err := initialFrame(snapshot)
	if err != nil {
		h.logger.Error("StreamHandler", "Failed to encode initial frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.logger.Info("StreamHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userId})
	internalWS.ServeWs(h.hub, conn, userId, initial)
	h.logger.Info("StreamHandler", "WebSocket session ended", map[string]interface{}{"user_id": userId})
}

func initialFrame(snapshot *dto.JournalResponse) ([]byte, error) {
	return json.Marshal(dto.StreamMessage{
		Type: dto.StreamTypeJournal,
		Data: dto.JournalEvent{Journal: snapshot},
	})
}
