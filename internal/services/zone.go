package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	domain "github.com/parcelforward/api/internal/domain"
	"github.com/parcelforward/api/internal/repositories"
)

// ZoneResolverDeps bundles constructor inputs for the zone resolver.
type ZoneResolverDeps struct {
	Zones  repositories.ZoneRepository
	Logger *zap.Logger
}

// ZoneResolver maps destination country codes onto a tenant's configured
// shipping zones.
type ZoneResolver struct {
	zones  repositories.ZoneRepository
	logger *zap.Logger
}

// NewZoneResolver constructs the zone resolver with the supplied dependencies.
func NewZoneResolver(deps ZoneResolverDeps) (*ZoneResolver, error) {
	if deps.Zones == nil {
		return nil, errors.New("zone resolver: zone repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoneResolver{zones: deps.Zones, logger: logger}, nil
}

// FindZoneByCountry returns the tenant's active zone covering the country
// code, or nil when no zone matches. Absence of a zone is a normal outcome
// the caller branches on; repository failures are logged and also resolve
// to nil rather than propagating.
func (r *ZoneResolver) FindZoneByCountry(ctx context.Context, tenantID, countryCode string) *domain.Zone {
	country := strings.ToUpper(strings.TrimSpace(countryCode))
	if country == "" {
		return nil
	}

	zone, err := r.zones.FindActiveByCountry(ctx, tenantID, country)
	if err != nil {
		if !repositories.IsNotFound(err) {
			r.logger.Warn("zone lookup failed",
				zap.String("tenantId", tenantID),
				zap.String("country", country),
				zap.Error(err))
		}
		return nil
	}
	return &zone
}
