package services

import (
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	domain "github.com/parcelforward/api/internal/domain"
	"github.com/parcelforward/api/internal/repositories"
)

// Fallback terms used when a tenant has no active StoragePricing row.
const (
	fallbackFreeDays  = 7
	fallbackDailyRate = 2.00
	fallbackCurrency  = "USD"
)

// StorageFeeCalculatorDeps bundles constructor inputs for the storage fee
// calculator.
type StorageFeeCalculatorDeps struct {
	Pricing  repositories.StoragePricingRepository
	Bins     repositories.BinAssignmentRepository
	Packages repositories.PackageRepository
	// Fallback overrides the built-in default pricing; zero-value fields
	// fall back to 7 free days, 2.00/day, USD.
	Fallback domain.StoragePricing
	Logger   *zap.Logger
	Meter    metric.Meter
	Clock    func() time.Time
}

// StorageFeeCalculator computes accrued storage cost per package and in
// aggregate. Storage fees must always be computable for billing, so the
// calculator has no failure path: missing configuration degrades to the
// fallback terms and bin lookups fail open to zero premium.
type StorageFeeCalculator struct {
	pricing  repositories.StoragePricingRepository
	bins     repositories.BinAssignmentRepository
	packages repositories.PackageRepository
	fallback domain.StoragePricing
	logger   *zap.Logger
	clock    func() time.Time

	binFailures        metric.Int64Counter
	binFailuresEnabled bool
}

// NewStorageFeeCalculator constructs the storage fee calculator with the
// supplied dependencies.
func NewStorageFeeCalculator(deps StorageFeeCalculatorDeps) (*StorageFeeCalculator, error) {
	if deps.Pricing == nil {
		return nil, errors.New("storage fee calculator: pricing repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	fallback := deps.Fallback
	if fallback.FreeDays <= 0 {
		fallback.FreeDays = fallbackFreeDays
	}
	if fallback.DailyRateAfterFree <= 0 {
		fallback.DailyRateAfterFree = fallbackDailyRate
	}
	if fallback.Currency == "" {
		fallback.Currency = fallbackCurrency
	}

	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	binFailures, binErr := meter.Int64Counter(
		"storage.bin_lookup_failures",
		metric.WithDescription("Bin assignment lookups that failed open to zero premium"),
	)
	if binErr != nil {
		logger.Warn("storage: unable to register bin failure metric", zap.Error(binErr))
	}

	return &StorageFeeCalculator{
		pricing:            deps.Pricing,
		bins:               deps.Bins,
		packages:           deps.Packages,
		fallback:           fallback,
		logger:             logger,
		clock:              func() time.Time { return clock().UTC() },
		binFailures:        binFailures,
		binFailuresEnabled: binErr == nil,
	}, nil
}

// StorageFeeCommand describes a storage fee calculation over concrete
// package records. A zero CalculationDate means "now".
type StorageFeeCommand struct {
	Packages        []domain.Package
	TenantID        string
	CalculationDate time.Time
}

// CalculateStorageFees computes the accrued storage fee for each package and
// the rounded aggregate total. It never fails: pricing falls back to default
// terms and bin premiums degrade to zero when their lookups error.
func (c *StorageFeeCalculator) CalculateStorageFees(ctx context.Context, cmd StorageFeeCommand) domain.StorageFeeStatement {
	ctx, span := tracer.Start(ctx, "StorageFeeCalculator.CalculateStorageFees")
	defer span.End()

	calcDate := cmd.CalculationDate
	if calcDate.IsZero() {
		calcDate = c.clock()
	} else {
		calcDate = calcDate.UTC()
	}

	pricing := c.activePricing(ctx, cmd.TenantID, calcDate)

	statement := domain.StorageFeeStatement{
		Currency:  pricing.Currency,
		Breakdown: make([]domain.PackageStorageFee, 0, len(cmd.Packages)),
	}

	var total float64
	for _, pkg := range cmd.Packages {
		entry := c.packageFee(ctx, cmd.TenantID, pkg, pricing, calcDate)
		total += entry.PackageStorageFee
		statement.Breakdown = append(statement.Breakdown, entry)
	}

	statement.TotalStorageFee = roundToCent(total)
	return statement
}

// CalculateStorageFeesByIDs loads the identified packages and delegates to
// CalculateStorageFees. Only the package load itself can fail.
func (c *StorageFeeCalculator) CalculateStorageFeesByIDs(ctx context.Context, tenantID string, packageIDs []string, calculationDate time.Time) (domain.StorageFeeStatement, error) {
	if c.packages == nil {
		return domain.StorageFeeStatement{}, errors.New("storage fee calculator: package repository is not configured")
	}
	pkgs, err := c.packages.ListByIDs(ctx, tenantID, packageIDs)
	if err != nil {
		return domain.StorageFeeStatement{}, err
	}
	return c.CalculateStorageFees(ctx, StorageFeeCommand{
		Packages:        pkgs,
		TenantID:        tenantID,
		CalculationDate: calculationDate,
	}), nil
}

// EstimateStorageFee projects storage cost for packages not yet received,
// assuming each is stored for projectedDays. It is a deliberately rough
// pre-receipt figure and ignores actual received dates; like the real
// calculation it never fails.
func (c *StorageFeeCalculator) EstimateStorageFee(ctx context.Context, tenantID string, packageIDs []string, projectedDays int) domain.StorageFeeEstimate {
	pricing := c.activePricing(ctx, tenantID, c.clock())

	chargeableDays := projectedDays - pricing.FreeDays
	if chargeableDays < 0 {
		chargeableDays = 0
	}

	fee := float64(len(packageIDs)) * float64(chargeableDays) * pricing.DailyRateAfterFree
	return domain.StorageFeeEstimate{
		EstimatedFee:  roundToCent(fee),
		Currency:      pricing.Currency,
		ProjectedDays: projectedDays,
		PackageCount:  len(packageIDs),
	}
}

// activePricing resolves the tenant's effective pricing, degrading to the
// fallback terms on missing configuration or lookup failure.
func (c *StorageFeeCalculator) activePricing(ctx context.Context, tenantID string, on time.Time) domain.StoragePricing {
	pricing, err := c.pricing.FindActivePricing(ctx, tenantID, on)
	if err != nil {
		if !repositories.IsNotFound(err) {
			c.logger.Warn("storage pricing lookup failed, using default terms",
				zap.String("tenantId", tenantID),
				zap.Error(err))
		}
		return c.fallback
	}
	return pricing
}

func (c *StorageFeeCalculator) packageFee(ctx context.Context, tenantID string, pkg domain.Package, pricing domain.StoragePricing, calcDate time.Time) domain.PackageStorageFee {
	daysStored := 0
	if pkg.ReceivedAt != nil {
		daysStored = wholeDaysBetween(*pkg.ReceivedAt, calcDate)
	}

	freeDaysUsed := daysStored
	if freeDaysUsed > pricing.FreeDays {
		freeDaysUsed = pricing.FreeDays
	}
	chargeableDays := daysStored - pricing.FreeDays
	if chargeableDays < 0 {
		chargeableDays = 0
	}

	binCost, binLabel := c.binPremium(ctx, tenantID, pkg.ID, calcDate)

	return domain.PackageStorageFee{
		PackageID:         pkg.ID,
		DaysStored:        daysStored,
		FreeDaysUsed:      freeDaysUsed,
		ChargeableDays:    chargeableDays,
		DailyRate:         pricing.DailyRateAfterFree,
		BinLocationCost:   binCost,
		BinLocationLabel:  binLabel,
		PackageStorageFee: float64(chargeableDays)*pricing.DailyRateAfterFree + binCost,
	}
}

// binPremium accrues the daily surcharge for a current premium bin
// assignment. Missing assignments and lookup failures both yield zero; the
// failure case is logged and counted so undercharging stays visible.
func (c *StorageFeeCalculator) binPremium(ctx context.Context, tenantID, packageID string, calcDate time.Time) (float64, string) {
	if c.bins == nil || packageID == "" {
		return 0, ""
	}

	assignment, err := c.bins.FindCurrentAssignment(ctx, tenantID, packageID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			c.logger.Warn("bin assignment lookup failed, charging no premium",
				zap.String("tenantId", tenantID),
				zap.String("packageId", packageID),
				zap.Error(err))
			if c.binFailuresEnabled {
				c.binFailures.Add(ctx, 1, metric.WithAttributes(
					attribute.String("tenant_id", tenantID),
				))
			}
		}
		return 0, ""
	}

	if !assignment.Current() || assignment.Bin.DailyPremium == nil || *assignment.Bin.DailyPremium <= 0 {
		return 0, assignment.Label()
	}

	daysInBin := wholeDaysBetween(assignment.AssignedAt, calcDate)
	return float64(daysInBin) * *assignment.Bin.DailyPremium, assignment.Label()
}

// wholeDaysBetween floors the elapsed time to whole days, clamping to zero
// when from is in the future.
func wholeDaysBetween(from, to time.Time) int {
	elapsed := to.Sub(from)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// roundToCent rounds half away from zero at the second decimal. Applied only
// to final aggregate totals, never to intermediate figures.
func roundToCent(v float64) float64 {
	return math.Round(v*100) / 100
}
