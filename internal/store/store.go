// Package store persists store records, demographics, parcels, and
// predictions behind a driver-agnostic interface.
package store

import (
	"context"

	"github.com/davestroud/publix/internal/model"
)

// StoreFilter specifies criteria for listing store records.
type StoreFilter struct {
	Chain string `json:"chain,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the expansion analysis
// pipeline. Both drivers implement it; callers select via config.
type Store interface {
	// Store locations (target chain and competitors)
	UpsertStores(ctx context.Context, records []model.StoreRecord) (int, error)
	ListStores(ctx context.Context, filter StoreFilter) ([]model.StoreRecord, error)

	// Demographics
	UpsertDemographics(ctx context.Context, profiles []model.DemographicProfile) (int, error)
	ListDemographics(ctx context.Context, state string) ([]model.DemographicProfile, error)
	GetDemographic(ctx context.Context, city, state string) (*model.DemographicProfile, error)

	// Candidate parcels
	UpsertParcels(ctx context.Context, parcels []model.Parcel) (int, error)
	ListParcels(ctx context.Context, city, state string) ([]model.Parcel, error)

	// Predictions
	SavePrediction(ctx context.Context, p model.Prediction) error
	ListPredictions(ctx context.Context, state string, limit int) ([]model.Prediction, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
