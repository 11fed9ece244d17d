package firestore

import (
	"context"
	"errors"
	"fmt"

	pfirestore "github.com/parcelforward/api/internal/platform/firestore"
	"github.com/parcelforward/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider

	zones          *ZoneRepository
	rates          *RateRepository
	warehouses     *WarehouseRepository
	storagePricing *StoragePricingRepository
	bins           *BinAssignmentRepository
	packages       *PackageRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs every repository over a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires a provider")
	}

	zones, err := NewZoneRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build zone repository: %w", err)
	}
	rates, err := NewRateRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build rate repository: %w", err)
	}
	warehouses, err := NewWarehouseRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build warehouse repository: %w", err)
	}
	storagePricing, err := NewStoragePricingRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build storage pricing repository: %w", err)
	}
	bins, err := NewBinAssignmentRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build bin assignment repository: %w", err)
	}
	packages, err := NewPackageRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build package repository: %w", err)
	}

	return &Registry{
		provider:       provider,
		zones:          zones,
		rates:          rates,
		warehouses:     warehouses,
		storagePricing: storagePricing,
		bins:           bins,
		packages:       packages,
	}, nil
}

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close()
}

// Zones returns the zone repository.
func (r *Registry) Zones() repositories.ZoneRepository { return r.zones }

// Rates returns the shipping rate repository.
func (r *Registry) Rates() repositories.RateRepository { return r.rates }

// Warehouses returns the warehouse repository.
func (r *Registry) Warehouses() repositories.WarehouseRepository { return r.warehouses }

// StoragePricing returns the storage pricing repository.
func (r *Registry) StoragePricing() repositories.StoragePricingRepository { return r.storagePricing }

// Bins returns the bin assignment repository.
func (r *Registry) Bins() repositories.BinAssignmentRepository { return r.bins }

// Packages returns the package repository.
func (r *Registry) Packages() repositories.PackageRepository { return r.packages }
