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

const packageCollectionPattern = "tenants/%s/packages"

// PackageRepository reads package records from Firestore.
type PackageRepository struct {
	provider *pfirestore.Provider
}

// NewPackageRepository constructs a Firestore-backed package repository.
func NewPackageRepository(provider *pfirestore.Provider) (*PackageRepository, error) {
	if provider == nil {
		return nil, errors.New("package repository requires firestore provider")
	}
	return &PackageRepository{provider: provider}, nil
}

// ListByShipment returns every package linked to the shipment.
func (r *PackageRepository) ListByShipment(ctx context.Context, tenantID, shipmentID string) ([]domain.Package, error) {
	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return nil, errors.New("package repository: shipment id is required")
	}

	iter := coll.Where("shipmentId", "==", shipmentID).Documents(ctx)
	defer iter.Stop()

	var results []domain.Package
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("packages.listByShipment", err)
		}
		pkg, err := decodePackageDocument(tenantID, snap)
		if err != nil {
			return nil, err
		}
		results = append(results, pkg)
	}
	return results, nil
}

// ListByIDs fetches the identified packages, silently skipping ids with no
// document; callers treat absent packages as not yet received.
func (r *PackageRepository) ListByIDs(ctx context.Context, tenantID string, packageIDs []string) ([]domain.Package, error) {
	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("packages.client", err)
	}

	refs := make([]*firestore.DocumentRef, 0, len(packageIDs))
	for _, id := range packageIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			refs = append(refs, coll.Doc(id))
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}

	snaps, err := client.GetAll(ctx, refs)
	if err != nil {
		return nil, pfirestore.WrapError("packages.listByIDs", err)
	}

	results := make([]domain.Package, 0, len(snaps))
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		pkg, err := decodePackageDocument(tenantID, snap)
		if err != nil {
			return nil, err
		}
		results = append(results, pkg)
	}
	return results, nil
}

func (r *PackageRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("package repository: tenant id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("packages.client", err)
	}
	return client.Collection(fmt.Sprintf(packageCollectionPattern, tenantID)), nil
}

type packageDocument struct {
	ShipmentID         string     `firestore:"shipmentId"`
	WarehouseID        string     `firestore:"warehouseId"`
	WeightActualKg     *float64   `firestore:"weightActualKg"`
	LengthCm           *float64   `firestore:"lengthCm"`
	WidthCm            *float64   `firestore:"widthCm"`
	HeightCm           *float64   `firestore:"heightCm"`
	ChargeableWeightKg *float64   `firestore:"chargeableWeightKg"`
	ReceivedAt         *time.Time `firestore:"receivedAt"`
}

func decodePackageDocument(tenantID string, snap *firestore.DocumentSnapshot) (domain.Package, error) {
	var doc packageDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Package{}, pfirestore.WrapError("packages.decode", err)
	}
	return domain.Package{
		ID:                 snap.Ref.ID,
		TenantID:           tenantID,
		ShipmentID:         doc.ShipmentID,
		WarehouseID:        doc.WarehouseID,
		WeightActualKg:     doc.WeightActualKg,
		LengthCm:           doc.LengthCm,
		WidthCm:            doc.WidthCm,
		HeightCm:           doc.HeightCm,
		ChargeableWeightKg: doc.ChargeableWeightKg,
		ReceivedAt:         doc.ReceivedAt,
	}, nil
}
