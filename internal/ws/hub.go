package ws

import (
	"encoding/json"
	"log"
	"sync"
)

const sendBuffer = 64

// Client is one websocket connection, optionally tied to an account.
type Client struct {
	AccountID string
	Send      chan []byte
	hub       *Hub
	mu        sync.Mutex
	closed    bool
}

func NewClient(accountID string) *Client {
	return &Client{AccountID: accountID, Send: make(chan []byte, sendBuffer)}
}

// Close unregisters the client and closes Send. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// trySend queues data without blocking; slow clients drop messages.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// accountID -> clients (one account can have several tabs open)
	byAccount map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		byAccount: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
	if c.AccountID == "" {
		return
	}
	if h.byAccount[c.AccountID] == nil {
		h.byAccount[c.AccountID] = make(map[*Client]struct{})
	}
	h.byAccount[c.AccountID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byAccount[c.AccountID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byAccount, c.AccountID)
		}
	}
}

func encode(payload interface{}) ([]byte, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] encode %T: %v", payload, err)
		return nil, false
	}
	return data, true
}

func (h *Hub) BroadcastToAccount(accountID string, payload interface{}) {
	data, ok := encode(payload)
	if !ok {
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.byAccount[accountID]))
	for c := range h.byAccount[accountID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) BroadcastAll(payload interface{}) {
	data, ok := encode(payload)
	if !ok {
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
