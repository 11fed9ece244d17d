package services

import (
	"context"
	"time"

	domain "github.com/parcelforward/api/internal/domain"
	"github.com/parcelforward/api/internal/repositories"
)

type repoError struct {
	msg      string
	notFound bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return false }
func (e *repoError) IsUnavailable() bool { return !e.notFound }

func notFoundErr() error {
	return &repoError{msg: "not found", notFound: true}
}

func backendErr() error {
	return &repoError{msg: "backend unavailable"}
}

type fakeZoneRepo struct {
	zones map[string]domain.Zone
	err   error
	calls int
}

func (f *fakeZoneRepo) FindActiveByCountry(_ context.Context, _, countryCode string) (domain.Zone, error) {
	f.calls++
	if f.err != nil {
		return domain.Zone{}, f.err
	}
	zone, ok := f.zones[countryCode]
	if !ok {
		return domain.Zone{}, notFoundErr()
	}
	return zone, nil
}

type fakeRateRepo struct {
	rates map[domain.ServiceType]domain.ShippingRate
	err   error
	last  repositories.RateFilter
}

func (f *fakeRateRepo) FindActiveRate(_ context.Context, filter repositories.RateFilter) (domain.ShippingRate, error) {
	f.last = filter
	if f.err != nil {
		return domain.ShippingRate{}, f.err
	}
	rate, ok := f.rates[filter.ServiceType]
	if !ok || !rate.ValidOn(filter.On) {
		return domain.ShippingRate{}, notFoundErr()
	}
	return rate, nil
}

type fakeWarehouseRepo struct {
	warehouses map[string]domain.Warehouse
	err        error
}

func (f *fakeWarehouseRepo) FindByID(_ context.Context, _, warehouseID string) (domain.Warehouse, error) {
	if f.err != nil {
		return domain.Warehouse{}, f.err
	}
	warehouse, ok := f.warehouses[warehouseID]
	if !ok {
		return domain.Warehouse{}, notFoundErr()
	}
	return warehouse, nil
}

type fakePackageRepo struct {
	byShipment map[string][]domain.Package
	byID       map[string]domain.Package
	err        error
}

func (f *fakePackageRepo) ListByShipment(_ context.Context, _, shipmentID string) ([]domain.Package, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byShipment[shipmentID], nil
}

func (f *fakePackageRepo) ListByIDs(_ context.Context, _ string, packageIDs []string) ([]domain.Package, error) {
	if f.err != nil {
		return nil, f.err
	}
	var pkgs []domain.Package
	for _, id := range packageIDs {
		if pkg, ok := f.byID[id]; ok {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

type fakePricingRepo struct {
	pricing *domain.StoragePricing
	err     error
	calls   int
}

func (f *fakePricingRepo) FindActivePricing(_ context.Context, _ string, on time.Time) (domain.StoragePricing, error) {
	f.calls++
	if f.err != nil {
		return domain.StoragePricing{}, f.err
	}
	if f.pricing == nil || !f.pricing.ValidOn(on) {
		return domain.StoragePricing{}, notFoundErr()
	}
	return *f.pricing, nil
}

type fakeBinRepo struct {
	assignments map[string]domain.BinAssignment
	err         error
}

func (f *fakeBinRepo) FindCurrentAssignment(_ context.Context, _, packageID string) (domain.BinAssignment, error) {
	if f.err != nil {
		return domain.BinAssignment{}, f.err
	}
	assignment, ok := f.assignments[packageID]
	if !ok {
		return domain.BinAssignment{}, notFoundErr()
	}
	return assignment, nil
}

func f64(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }
