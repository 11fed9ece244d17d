package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/parcelforward/api/internal/domain"
	pfirestore "github.com/parcelforward/api/internal/platform/firestore"
)

const zoneCollectionPattern = "tenants/%s/zones"

// ZoneRepository reads tenant shipping zones from Firestore.
type ZoneRepository struct {
	provider *pfirestore.Provider
}

// NewZoneRepository constructs a Firestore-backed zone repository.
func NewZoneRepository(provider *pfirestore.Provider) (*ZoneRepository, error) {
	if provider == nil {
		return nil, errors.New("zone repository requires firestore provider")
	}
	return &ZoneRepository{provider: provider}, nil
}

// FindActiveByCountry returns the tenant's active zone whose member
// countries contain the code. Country membership is unique per tenant, so
// the first match is the match.
func (r *ZoneRepository) FindActiveByCountry(ctx context.Context, tenantID, countryCode string) (domain.Zone, error) {
	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.Zone{}, err
	}

	country := strings.ToUpper(strings.TrimSpace(countryCode))
	iter := coll.
		Where("isActive", "==", true).
		Where("countries", "array-contains", country).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Zone{}, pfirestore.NotFoundError("zones.findActiveByCountry")
	}
	if err != nil {
		return domain.Zone{}, pfirestore.WrapError("zones.findActiveByCountry", err)
	}
	return decodeZoneDocument(tenantID, snap)
}

func (r *ZoneRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("zone repository: tenant id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("zones.client", err)
	}
	return client.Collection(fmt.Sprintf(zoneCollectionPattern, tenantID)), nil
}

type zoneDocument struct {
	Name      string   `firestore:"name"`
	Countries []string `firestore:"countries"`
	IsActive  bool     `firestore:"isActive"`
}

func decodeZoneDocument(tenantID string, snap *firestore.DocumentSnapshot) (domain.Zone, error) {
	var doc zoneDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Zone{}, pfirestore.WrapError("zones.decode", err)
	}
	countries := make([]string, 0, len(doc.Countries))
	for _, c := range doc.Countries {
		countries = append(countries, strings.ToUpper(strings.TrimSpace(c)))
	}
	return domain.Zone{
		ID:        snap.Ref.ID,
		TenantID:  tenantID,
		Name:      doc.Name,
		Countries: countries,
		IsActive:  doc.IsActive,
	}, nil
}
