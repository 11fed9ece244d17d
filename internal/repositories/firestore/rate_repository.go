package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/parcelforward/api/internal/domain"
	pfirestore "github.com/parcelforward/api/internal/platform/firestore"
	"github.com/parcelforward/api/internal/repositories"
)

const rateCollectionPattern = "tenants/%s/shippingRates"

// RateRepository reads tenant shipping rates from Firestore.
type RateRepository struct {
	provider *pfirestore.Provider
}

// NewRateRepository constructs a Firestore-backed shipping rate repository.
func NewRateRepository(provider *pfirestore.Provider) (*RateRepository, error) {
	if provider == nil {
		return nil, errors.New("rate repository requires firestore provider")
	}
	return &RateRepository{provider: provider}, nil
}

// FindActiveRate returns the first rate for the lane that is active and
// effective at filter.On. Firestore cannot range-filter on two fields, so
// the effective window is checked in memory while iterating newest
// effectiveFrom first; the ordering keeps selection stable should the write
// path ever let duplicate active rates slip through.
func (r *RateRepository) FindActiveRate(ctx context.Context, filter repositories.RateFilter) (domain.ShippingRate, error) {
	coll, err := r.collection(ctx, filter.TenantID)
	if err != nil {
		return domain.ShippingRate{}, err
	}

	on := filter.On
	if on.IsZero() {
		on = time.Now().UTC()
	}

	iter := coll.
		Where("isActive", "==", true).
		Where("warehouseId", "==", strings.TrimSpace(filter.WarehouseID)).
		Where("zoneId", "==", strings.TrimSpace(filter.ZoneID)).
		Where("serviceType", "==", string(filter.ServiceType)).
		OrderBy("effectiveFrom", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.ShippingRate{}, pfirestore.WrapError("rates.findActiveRate", err)
		}
		rate, err := decodeRateDocument(filter.TenantID, snap)
		if err != nil {
			return domain.ShippingRate{}, err
		}
		if rate.ValidOn(on) {
			return rate, nil
		}
	}
	return domain.ShippingRate{}, pfirestore.NotFoundError("rates.findActiveRate")
}

func (r *RateRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("rate repository: tenant id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("rates.client", err)
	}
	return client.Collection(fmt.Sprintf(rateCollectionPattern, tenantID)), nil
}

type rateDocument struct {
	WarehouseID    string     `firestore:"warehouseId"`
	ZoneID         string     `firestore:"zoneId"`
	ServiceType    string     `firestore:"serviceType"`
	BaseRate       float64    `firestore:"baseRate"`
	PerKgRate      float64    `firestore:"perKgRate"`
	MinCharge      float64    `firestore:"minCharge"`
	MaxWeightKg    *float64   `firestore:"maxWeightKg"`
	Currency       string     `firestore:"currency"`
	EffectiveFrom  time.Time  `firestore:"effectiveFrom"`
	EffectiveUntil *time.Time `firestore:"effectiveUntil"`
	IsActive       bool       `firestore:"isActive"`
}

func decodeRateDocument(tenantID string, snap *firestore.DocumentSnapshot) (domain.ShippingRate, error) {
	var doc rateDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.ShippingRate{}, pfirestore.WrapError("rates.decode", err)
	}
	serviceType, ok := domain.NormalizeServiceType(doc.ServiceType)
	if !ok {
		return domain.ShippingRate{}, pfirestore.WrapError("rates.decode",
			fmt.Errorf("rate %s has unknown service type %q", snap.Ref.ID, doc.ServiceType))
	}
	return domain.ShippingRate{
		ID:             snap.Ref.ID,
		TenantID:       tenantID,
		WarehouseID:    doc.WarehouseID,
		ZoneID:         doc.ZoneID,
		ServiceType:    serviceType,
		BaseRate:       doc.BaseRate,
		PerKgRate:      doc.PerKgRate,
		MinCharge:      doc.MinCharge,
		MaxWeightKg:    doc.MaxWeightKg,
		Currency:       normalizeCurrency(doc.Currency),
		EffectiveFrom:  doc.EffectiveFrom,
		EffectiveUntil: doc.EffectiveUntil,
		IsActive:       doc.IsActive,
	}, nil
}
