package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyaltytree/config"
	"loyaltytree/internal/domain"
	"loyaltytree/internal/models"
	"loyaltytree/internal/repository"
	"loyaltytree/pkg/location"

	"gorm.io/gorm"
)

const maxNearbyRadiusKm = 100

// SubmitResult is returned by TreeService.Submit.
type SubmitResult struct {
	Submission     *models.TreeSubmission `json:"treePlanting"`
	PointsAwarded  int                    `json:"pointsAwarded"`
	NewTotalPoints int                    `json:"newTotalPoints"`
}

// TreeService runs the tree-submission workflow. Crediting points happens only
// through approve, which is guarded by the submission's pending status.
type TreeService struct {
	db        *gorm.DB
	trees     *repository.TreeRepository
	customers *repository.CustomerRepository
	points    config.PointsConfig
	mapCfg    config.MapConfig
	events    EventPublisher
}

func NewTreeService(db *gorm.DB, trees *repository.TreeRepository, customers *repository.CustomerRepository,
	points config.PointsConfig, mapCfg config.MapConfig, events EventPublisher) *TreeService {
	return &TreeService{
		db:        db,
		trees:     trees,
		customers: customers,
		points:    points,
		mapCfg:    mapCfg,
		events:    publisherOrNoop(events),
	}
}

// approve moves a pending submission to approved and credits the owner in tx.
// It returns ErrAlreadyReviewed when the submission had already left pending.
func (s *TreeService) approve(ctx context.Context, tx *gorm.DB, sub *models.TreeSubmission) (int, error) {
	changed, err := s.trees.WithTx(tx).LeavePending(ctx, sub.ID, domain.TreeStatusApproved, "", s.points.PerTree)
	if err != nil {
		return 0, err
	}
	if !changed {
		return 0, ErrAlreadyReviewed
	}
	balance, err := s.customers.WithTx(tx).Credit(ctx, sub.CustomerID, s.points.PerTree)
	if err != nil {
		return 0, fmt.Errorf("credit points: %w", err)
	}
	sub.Status = domain.TreeStatusApproved
	sub.PointsAwarded = s.points.PerTree
	return balance, nil
}

// Submit records a tree and approves it immediately; the new row and the credit commit together.
func (s *TreeService) Submit(ctx context.Context, customerID, imageURL string, lat, lng float64) (*SubmitResult, error) {
	if !location.ValidCoordinates(lat, lng) {
		return nil, ErrInvalidLocation
	}
	sub := &models.TreeSubmission{
		CustomerID: customerID,
		ImageURL:   imageURL,
		Latitude:   lat,
		Longitude:  lng,
		Status:     domain.TreeStatusPending,
	}
	var balance int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.trees.WithTx(tx).Create(ctx, sub); err != nil {
			return err
		}
		var err error
		balance, err = s.approve(ctx, tx, sub)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("submit tree: %w", err)
	}
	s.events.PointsChanged(customerID, balance, sub.PointsAwarded, domain.PointsReasonTreeApproved)
	s.events.TreePlanted(s.marker(sub))
	return &SubmitResult{Submission: sub, PointsAwarded: sub.PointsAwarded, NewTotalPoints: balance}, nil
}

// Review is the administrative path: approve (crediting points) or reject a pending submission.
func (s *TreeService) Review(ctx context.Context, id, decision, reason string) (*models.TreeSubmission, error) {
	if decision != domain.TreeStatusApproved && decision != domain.TreeStatusRejected {
		return nil, ErrInvalidDecision
	}
	sub, err := s.trees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTreeNotFound
		}
		return nil, err
	}
	if sub.Status != domain.TreeStatusPending {
		return nil, ErrAlreadyReviewed
	}

	if decision == domain.TreeStatusRejected {
		changed, err := s.trees.LeavePending(ctx, id, domain.TreeStatusRejected, reason, 0)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, ErrAlreadyReviewed
		}
		sub.Status = domain.TreeStatusRejected
		sub.RejectionReason = reason
		return sub, nil
	}

	var balance int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.approve(ctx, tx, sub)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, err
		}
		return nil, fmt.Errorf("approve tree: %w", err)
	}
	s.events.PointsChanged(sub.CustomerID, balance, sub.PointsAwarded, domain.PointsReasonTreeApproved)
	s.events.TreePlanted(s.marker(sub))
	return sub, nil
}

func (s *TreeService) ListMine(ctx context.Context, customerID string) ([]models.TreeSubmission, error) {
	return s.trees.ListByCustomer(ctx, customerID)
}

func (s *TreeService) ListPending(ctx context.Context) ([]models.TreeSubmission, error) {
	return s.trees.ListPending(ctx)
}

// Nearby returns fuzzed markers for approved trees within radiusKm of (lat, lng).
func (s *TreeService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]TreeMarker, error) {
	if !location.ValidCoordinates(lat, lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 || radiusKm > maxNearbyRadiusKm {
		radiusKm = maxNearbyRadiusKm
	}
	list, err := s.trees.ListApprovedWithin(ctx, location.BoundingBox(lat, lng, radiusKm), s.mapCfg.MaxMarkers)
	if err != nil {
		return nil, err
	}
	out := make([]TreeMarker, 0, len(list))
	for i := range list {
		if location.HaversineKm(lat, lng, list[i].Latitude, list[i].Longitude) <= radiusKm {
			out = append(out, s.marker(&list[i]))
		}
	}
	return out, nil
}

// RecentMarkers seeds the live tree map.
func (s *TreeService) RecentMarkers(ctx context.Context) ([]TreeMarker, error) {
	list, err := s.trees.ListRecentApproved(ctx, s.mapCfg.MaxMarkers)
	if err != nil {
		return nil, err
	}
	out := make([]TreeMarker, 0, len(list))
	for i := range list {
		out = append(out, s.marker(&list[i]))
	}
	return out, nil
}

func (s *TreeService) marker(t *models.TreeSubmission) TreeMarker {
	lat, lng := location.Fuzz(t.Latitude, t.Longitude, s.mapCfg.FuzzMeters)
	planted := t.UpdatedAt
	if planted.IsZero() {
		planted = time.Now().UTC()
	}
	return TreeMarker{ID: t.ID, Lat: lat, Lng: lng, PlantedAt: planted}
}
