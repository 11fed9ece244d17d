package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/parcelforward/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for
// dependency injection. Every repository is read-only from the calculation
// core's perspective; writes happen in the surrounding CRUD layer.
type Registry interface {
	Close(ctx context.Context) error

	Zones() ZoneRepository
	Rates() RateRepository
	Warehouses() WarehouseRepository
	StoragePricing() StoragePricingRepository
	Bins() BinAssignmentRepository
	Packages() PackageRepository
}

// RepositoryError wraps low-level persistence failures with categorisation
// used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ZoneRepository reads tenant shipping zones.
type ZoneRepository interface {
	// FindActiveByCountry returns the tenant's active zone containing the
	// country code, or a not-found error when no zone matches.
	FindActiveByCountry(ctx context.Context, tenantID, countryCode string) (domain.Zone, error)
}

// RateFilter narrows a shipping rate lookup to one lane.
type RateFilter struct {
	TenantID    string
	WarehouseID string
	ZoneID      string
	ServiceType domain.ServiceType
	// On is the instant the rate must be effective at, normally "today".
	On time.Time
}

// RateRepository reads tenant shipping rates.
type RateRepository interface {
	// FindActiveRate returns the first active, date-valid rate for the lane.
	// At most one such rate should exist per lane; the write path enforces
	// that, so selection order among duplicates only needs to be stable.
	FindActiveRate(ctx context.Context, filter RateFilter) (domain.ShippingRate, error)
}

// WarehouseRepository reads warehouse records.
type WarehouseRepository interface {
	FindByID(ctx context.Context, tenantID, warehouseID string) (domain.Warehouse, error)
}

// StoragePricingRepository reads tenant storage pricing configuration.
type StoragePricingRepository interface {
	// FindActivePricing returns the pricing row effective at the instant,
	// or a not-found error when the tenant has none configured.
	FindActivePricing(ctx context.Context, tenantID string, on time.Time) (domain.StoragePricing, error)
}

// BinAssignmentRepository reads package bin placements.
type BinAssignmentRepository interface {
	// FindCurrentAssignment returns the package's current (not removed)
	// bin assignment, or a not-found error when the package is unbinned.
	FindCurrentAssignment(ctx context.Context, tenantID, packageID string) (domain.BinAssignment, error)
}

// PackageRepository reads package records.
type PackageRepository interface {
	ListByShipment(ctx context.Context, tenantID, shipmentID string) ([]domain.Package, error)
	ListByIDs(ctx context.Context, tenantID string, packageIDs []string) ([]domain.Package, error)
}

// IsNotFound reports whether err categorises as a missing record.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
