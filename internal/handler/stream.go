package handler

import (
	"net/http"
	"time"

	"ventaspos/internal/apierror"
	"ventaspos/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StreamHandler exposes hub channels as Server-Sent Events.
type StreamHandler struct {
	hub       *notify.Hub
	keepAlive time.Duration
}

func NewStreamHandler(hub *notify.Hub, keepAlive time.Duration) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &StreamHandler{hub: hub, keepAlive: keepAlive}
}

// Stream keeps the connection open until the client leaves, writing one SSE
// event per hub event and a ping every keepAlive.
func (h *StreamHandler) Stream(c *gin.Context) {
	canal := c.Param("canal")
	sub, err := h.hub.Subscribe(canal)
	if err != nil {
		respondError(c, apierror.NotFoundBy("canal", "nombre", canal))
		return
	}
	defer h.hub.Unsubscribe(sub)

	log.Debug().Str("canal", canal).Str("suscripcion", sub.ID).Msg("stream abierto")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case ev := <-sub.Eventos:
			c.SSEvent(ev.Tipo, string(ev.Data))
		case <-ping.C:
			c.SSEvent("ping", "")
		}
		c.Writer.Flush()
	}
}
