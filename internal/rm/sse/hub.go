package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event 推送事件，CallID 为空表示全局事件
type Event struct {
	EventType string `json:"event"`
	CallID    string `json:"call_id,omitempty"`
	Data      string `json:"data"`
}

// Client 一个看板连接；CallID 非空时只接收该报验单的事件
type Client struct {
	ID     string
	UserID string
	CallID string
	Events chan Event
}

func (c *Client) wants(e Event) bool {
	return c.CallID == "" || e.CallID == "" || c.CallID == e.CallID
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("sse"),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("client registered", zap.String("id", client.ID), zap.String("user", client.UserID), zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("client unregistered", zap.String("id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("client buffer full, skipping event", zap.String("id", client.ID), zap.String("event", event.EventType))
		}
	}
}

// VerdictUpdate 判定结果推送内容
type VerdictUpdate struct {
	CallID    string `json:"call_id"`
	CallNo    string `json:"call_no"`
	LotStatus string `json:"lot_status"`
	Accepted  int    `json:"accepted"`
	Rejected  int    `json:"rejected"`
	Pending   int    `json:"pending"`
	Action    string `json:"action"` // evaluate/finalize
}

// PublishVerdictUpdate 批次判定变化时推送给看板
func (h *Hub) PublishVerdictUpdate(u VerdictUpdate) {
	data, err := json.Marshal(u)
	if err != nil {
		h.logger.Error("marshal verdict_update", zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: "verdict_update", CallID: u.CallID, Data: string(data)})
	h.logger.Debug("published verdict_update", zap.String("call_no", u.CallNo), zap.String("lot_status", u.LotStatus))
}

// PublishCallUpdate 报验单级别更新（创建、炉号增删、完成）
func (h *Hub) PublishCallUpdate(callID, action string) {
	data, _ := json.Marshal(map[string]string{"call_id": callID, "action": action})
	h.Broadcast(Event{EventType: "call_update", CallID: callID, Data: string(data)})
}
