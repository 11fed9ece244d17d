package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/parcelforward/api/internal/domain"
	pfirestore "github.com/parcelforward/api/internal/platform/firestore"
)

const warehouseCollectionPattern = "tenants/%s/warehouses"

// WarehouseRepository reads warehouse records from Firestore.
type WarehouseRepository struct {
	provider *pfirestore.Provider
}

// NewWarehouseRepository constructs a Firestore-backed warehouse repository.
func NewWarehouseRepository(provider *pfirestore.Provider) (*WarehouseRepository, error) {
	if provider == nil {
		return nil, errors.New("warehouse repository requires firestore provider")
	}
	return &WarehouseRepository{provider: provider}, nil
}

// FindByID fetches a single warehouse document.
func (r *WarehouseRepository) FindByID(ctx context.Context, tenantID, warehouseID string) (domain.Warehouse, error) {
	coll, err := r.collection(ctx, tenantID)
	if err != nil {
		return domain.Warehouse{}, err
	}

	warehouseID = strings.TrimSpace(warehouseID)
	if warehouseID == "" {
		return domain.Warehouse{}, errors.New("warehouse repository: warehouse id is required")
	}

	snap, err := coll.Doc(warehouseID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Warehouse{}, pfirestore.NotFoundError("warehouses.findByID")
		}
		return domain.Warehouse{}, pfirestore.WrapError("warehouses.findByID", err)
	}

	var doc warehouseDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Warehouse{}, pfirestore.WrapError("warehouses.decode", err)
	}
	return domain.Warehouse{
		ID:       snap.Ref.ID,
		TenantID: tenantID,
		Name:     doc.Name,
		Country:  strings.ToUpper(strings.TrimSpace(doc.Country)),
	}, nil
}

func (r *WarehouseRepository) collection(ctx context.Context, tenantID string) (*firestore.CollectionRef, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("warehouse repository: tenant id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("warehouses.client", err)
	}
	return client.Collection(fmt.Sprintf(warehouseCollectionPattern, tenantID)), nil
}

type warehouseDocument struct {
	Name    string `firestore:"name"`
	Country string `firestore:"country"`
}
