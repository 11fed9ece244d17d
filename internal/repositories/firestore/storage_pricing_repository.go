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
)

const storagePricingCollectionPattern = "tenants/%s/storagePricing"

// StoragePricingRepository reads tenant storage pricing from Firestore.
type StoragePricingRepository struct {
	provider *pfirestore.Provider
}

// NewStoragePricingRepository constructs a Firestore-backed storage pricing
// repository.
func NewStoragePricingRepository(provider *pfirestore.Provider) (*StoragePricingRepository, error) {
	if provider == nil {
		return nil, errors.New("storage pricing repository requires firestore provider")
	}
	return &StoragePricingRepository{provider: provider}, nil
}

// FindActivePricing returns the pricing row effective at the given instant,
// checking the effective window in memory while iterating newest
// effectiveFrom first.
func (r *StoragePricingRepository) FindActivePricing(ctx context.Context, tenantID string, on time.Time) (domain.StoragePricing, error) {
	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.StoragePricing{}, err
	}

	if on.IsZero() {
		on = time.Now().UTC()
	}

	iter := coll.
		Where("isActive", "==", true).
		OrderBy("effectiveFrom", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.StoragePricing{}, pfirestore.WrapError("storagePricing.findActivePricing", err)
		}
		pricing, err := decodeStoragePricingDocument(tenantID, snap)
		if err != nil {
			return domain.StoragePricing{}, err
		}
		if pricing.ValidOn(on) {
			return pricing, nil
		}
	}
	return domain.StoragePricing{}, pfirestore.NotFoundError("storagePricing.findActivePricing")
}

func (r *StoragePricingRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("storage pricing repository: tenant id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("storagePricing.client", err)
	}
	return client.Collection(fmt.Sprintf(storagePricingCollectionPattern, tenantID)), nil
}

type storagePricingDocument struct {
	FreeDays           int        `firestore:"freeDays"`
	DailyRateAfterFree float64    `firestore:"dailyRateAfterFree"`
	Currency           string     `firestore:"currency"`
	EffectiveFrom      time.Time  `firestore:"effectiveFrom"`
	EffectiveUntil     *time.Time `firestore:"effectiveUntil"`
	IsActive           bool       `firestore:"isActive"`
}

func decodeStoragePricingDocument(tenantID string, snap *firestore.DocumentSnapshot) (domain.StoragePricing, error) {
	var doc storagePricingDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.StoragePricing{}, pfirestore.WrapError("storagePricing.decode", err)
	}
	return domain.StoragePricing{
		ID:                 snap.Ref.ID,
		TenantID:           tenantID,
		FreeDays:           doc.FreeDays,
		DailyRateAfterFree: doc.DailyRateAfterFree,
		Currency:           normalizeCurrency(doc.Currency),
		EffectiveFrom:      doc.EffectiveFrom,
		EffectiveUntil:     doc.EffectiveUntil,
		IsActive:           doc.IsActive,
	}, nil
}
