package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/parcelforward/api/internal/domain"
	pfirestore "github.com/parcelforward/api/internal/platform/firestore"
)

const (
	binAssignmentCollectionPattern = "tenants/%s/packages/%s/binAssignments"
	binLocationCollectionPattern   = "tenants/%s/binLocations"
)

// BinAssignmentRepository reads package bin placements from Firestore.
type BinAssignmentRepository struct {
	provider *pfirestore.Provider
}

// NewBinAssignmentRepository constructs a Firestore-backed bin assignment
// repository.
func NewBinAssignmentRepository(provider *pfirestore.Provider) (*BinAssignmentRepository, error) {
	if provider == nil {
		return nil, errors.New("bin assignment repository requires firestore provider")
	}
	return &BinAssignmentRepository{provider: provider}, nil
}

// FindCurrentAssignment returns the package's current bin assignment joined
// with its bin location. A package has at most one assignment with a null
// removedAt; the write path enforces that.
func (r *BinAssignmentRepository) FindCurrentAssignment(ctx context.Context, tenantID, packageID string) (domain.BinAssignment, error) {
	tenantID = strings.TrimSpace(tenantID)
	packageID = strings.TrimSpace(packageID)
	if tenantID == "" || packageID == "" {
		return domain.BinAssignment{}, errors.New("bin assignment repository: tenant and package ids are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.BinAssignment{}, pfirestore.WrapError("bins.client", err)
	}

	coll := client.Collection(fmt.Sprintf(binAssignmentCollectionPattern, tenantID, packageID))
	iter := coll.Where("removedAt", "==", nil).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.BinAssignment{}, pfirestore.NotFoundError("bins.findCurrentAssignment")
	}
	if err != nil {
		return domain.BinAssignment{}, pfirestore.WrapError("bins.findCurrentAssignment", err)
	}

	var doc binAssignmentDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.BinAssignment{}, pfirestore.WrapError("bins.decode", err)
	}

	bin, err := r.findBinLocation(ctx, client, tenantID, doc.BinLocationID)
	if err != nil {
		return domain.BinAssignment{}, err
	}

	return domain.BinAssignment{
		ID:         snap.Ref.ID,
		PackageID:  packageID,
		Bin:        bin,
		AssignedAt: doc.AssignedAt,
		RemovedAt:  doc.RemovedAt,
	}, nil
}

func (r *BinAssignmentRepository) findBinLocation(ctx context.Context, client *firestore.Client, tenantID, binLocationID string) (domain.BinLocation, error) {
	binLocationID = strings.TrimSpace(binLocationID)
	if binLocationID == "" {
		return domain.BinLocation{}, pfirestore.NotFoundError("bins.findBinLocation")
	}

	ref := client.Collection(fmt.Sprintf(binLocationCollectionPattern, tenantID)).Doc(binLocationID)
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.BinLocation{}, pfirestore.NotFoundError("bins.findBinLocation")
		}
		return domain.BinLocation{}, pfirestore.WrapError("bins.findBinLocation", err)
	}

	var doc binLocationDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.BinLocation{}, pfirestore.WrapError("bins.decodeLocation", err)
	}
	return domain.BinLocation{
		ID:           snap.Ref.ID,
		TenantID:     tenantID,
		WarehouseID:  doc.WarehouseID,
		Zone:         doc.Zone,
		Code:         doc.Code,
		DailyPremium: doc.DailyPremium,
		IsActive:     doc.IsActive,
	}, nil
}

type binAssignmentDocument struct {
	BinLocationID string     `firestore:"binLocationId"`
	AssignedAt    time.Time  `firestore:"assignedAt"`
	RemovedAt     *time.Time `firestore:"removedAt"`
}

type binLocationDocument struct {
	WarehouseID  string   `firestore:"warehouseId"`
	Zone         string   `firestore:"zone"`
	Code         string   `firestore:"code"`
	DailyPremium *float64 `firestore:"dailyPremium"`
	IsActive     bool     `firestore:"isActive"`
}
