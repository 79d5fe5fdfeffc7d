package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/sse"
	"github.com/gin-gonic/gin"
)

// 心跳间隔，避免代理断开空闲连接
const sseHeartbeat = 30 * time.Second

// SSEHandler 判定结果推送
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

// NewSSEHandler 创建推送处理器
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: sseHeartbeat}
}

// Stream 订阅判定推送，?call_id= 只接收单个报验单
// GET /api/v1/rm/events?token=xxx&call_id=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := GetUserID(c)
	client := &sse.Client{
		ID:     fmt.Sprintf("%s_%d", userID, time.Now().UnixNano()),
		UserID: userID,
		CallID: c.Query("call_id"),
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("connected", gin.H{"client_id": client.ID, "call_id": client.CallID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(event.EventType, event.Data)
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
		}
		return true
	})
}
