package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultFeedPingInterval = 30 * time.Second
	feedWriteTimeout        = 10 * time.Second
)

type EventsHandler struct {
	Feed ActivityFeed
	// OriginPatterns are host patterns accepted in the Origin header ("*" for any).
	OriginPatterns []string
	PingInterval   time.Duration
	log            zerolog.Logger
}

func NewEventsHandler(feed ActivityFeed, originPatterns []string, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		Feed:           feed,
		OriginPatterns: originPatterns,
		PingInterval:   defaultFeedPingInterval,
		log:            log.With().Str("handler", "events").Logger(),
	}
}

// @Summary      Поток событий воронки (WebSocket)
// @Description  Каждое сообщение: запись activity (смена стадии и т.п.) текущего workspace.
// @Tags         Pipeline
// @Param        workspace_id path string true "Workspace"
// @Success      101
// @Failure      400 {object} map[string]string
// @Security     BearerAuth
// @Router       /workspaces/{workspace_id}/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade required", "code": CodeBadRequest})
		return
	}
	wsID := workspaceID(c)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := h.Feed.Subscribe(ctx, wsID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// the server's read/write timeouts would otherwise cut the stream
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		// Accept has already answered the request
		h.log.Debug().Err(err).Str("workspace_id", wsID).Msg("feed handshake rejected")
		return
	}
	defer conn.CloseNow()

	// the peer only sends control frames; CloseRead handles them and cancels
	// ctx once the connection is gone
	ctx = conn.CloseRead(ctx)

	userID, _ := getUserAndRole(c)
	log := h.log.With().Str("workspace_id", wsID).Str("user_id", userID).Logger()
	log.Debug().Msg("feed subscriber connected")

	interval := h.PingInterval
	if interval <= 0 {
		interval = defaultFeedPingInterval
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				log.Debug().Err(err).Msg("feed subscriber stopped answering pings")
				return
			}
		case a, ok := <-feed:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := wsjson.Write(wctx, conn, a)
			wcancel()
			if err != nil {
				log.Debug().Err(err).Msg("feed subscriber dropped")
				return
			}
		}
	}
}
