package ws

import (
	"context"
	"time"

	"loyaltytree/internal/service"
)

// TreeEvent is pushed to tree map viewers when a tree is approved.
type TreeEvent struct {
	Type string `json:"type"`
	service.TreeMarker
}

// PointsEvent is pushed to a customer when their balance changes.
type PointsEvent struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// MarkerSource loads the markers a new map viewer starts with.
type MarkerSource interface {
	RecentMarkers(ctx context.Context) ([]service.TreeMarker, error)
}

// TreeMapHub streams approved trees to the public map.
type TreeMapHub struct {
	*Hub
	source MarkerSource
}

func NewTreeMapHub(source MarkerSource) *TreeMapHub {
	return &TreeMapHub{Hub: NewHub(), source: source}
}

func (m *TreeMapHub) Publish(marker service.TreeMarker) {
	m.BroadcastAll(TreeEvent{Type: "tree", TreeMarker: marker})
}

// initial returns the markers message sent on connect.
func (m *TreeMapHub) initial(ctx context.Context) map[string]interface{} {
	markers := []service.TreeMarker{}
	if m.source != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if list, err := m.source.RecentMarkers(ctx); err == nil {
			markers = list
		}
	}
	return map[string]interface{}{"type": "markers", "markers": markers}
}

// Broadcaster fans committed ledger changes out to websocket clients.
type Broadcaster struct {
	Events *Hub
	Trees  *TreeMapHub
}

func (b *Broadcaster) PointsChanged(customerID string, balance, delta int, reason string) {
	if b.Events == nil {
		return
	}
	b.Events.BroadcastToAccount(customerID, PointsEvent{Type: "points", Points: balance, Delta: delta, Reason: reason})
}

func (b *Broadcaster) TreePlanted(marker service.TreeMarker) {
	if b.Trees == nil {
		return
	}
	b.Trees.Publish(marker)
}
