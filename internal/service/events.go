package service

import "time"

// TreeMarker is the public, location-fuzzed view of an approved tree.
type TreeMarker struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	PlantedAt time.Time `json:"plantedAt"`
}

// EventPublisher receives ledger changes after their transaction has committed.
type EventPublisher interface {
	PointsChanged(customerID string, balance, delta int, reason string)
	TreePlanted(marker TreeMarker)
}

type noopPublisher struct{}

func (noopPublisher) PointsChanged(string, int, int, string) {}
func (noopPublisher) TreePlanted(TreeMarker)                 {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
