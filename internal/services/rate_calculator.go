package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	domain "github.com/parcelforward/api/internal/domain"
	"github.com/parcelforward/api/internal/repositories"
)

const metricNamespace = "github.com/parcelforward/api/internal/services"

var tracer = otel.Tracer(metricNamespace)

// RateCalculatorDeps bundles constructor inputs for the rate calculator.
type RateCalculatorDeps struct {
	Zones      *ZoneResolver
	Rates      repositories.RateRepository
	Warehouses repositories.WarehouseRepository
	Packages   repositories.PackageRepository
	Logger     *zap.Logger
	Meter      metric.Meter
	Clock      func() time.Time
	IDGen      func() string
}

// RateCalculator prices shipments against a tenant's configured rate table.
type RateCalculator struct {
	zones      *ZoneResolver
	rates      repositories.RateRepository
	warehouses repositories.WarehouseRepository
	packages   repositories.PackageRepository
	logger     *zap.Logger
	clock      func() time.Time
	idGen      func() string

	quotes        metric.Int64Counter
	quotesEnabled bool
}

// NewRateCalculator constructs the rate calculator with the supplied dependencies.
func NewRateCalculator(deps RateCalculatorDeps) (*RateCalculator, error) {
	if deps.Zones == nil {
		return nil, errors.New("rate calculator: zone resolver is required")
	}
	if deps.Rates == nil {
		return nil, errors.New("rate calculator: rate repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	quotes, quotesErr := meter.Int64Counter(
		"rates.quotes",
		metric.WithDescription("Shipping rate quote attempts by outcome"),
	)
	if quotesErr != nil {
		logger.Warn("rates: unable to register quote metric", zap.Error(quotesErr))
	}

	return &RateCalculator{
		zones:         deps.Zones,
		rates:         deps.Rates,
		warehouses:    deps.Warehouses,
		packages:      deps.Packages,
		logger:        logger,
		clock:         func() time.Time { return clock().UTC() },
		idGen:         idGen,
		quotes:        quotes,
		quotesEnabled: quotesErr == nil,
	}, nil
}

// RateRequest describes a shipping cost quote request. Chargeable weight may
// be supplied directly or resolved from the shipment's packages when
// ShipmentID is set and ChargeableWeightKg is nil. An empty ServiceType
// means standard.
type RateRequest struct {
	TenantID           string
	WarehouseID        string
	DestinationCountry string
	ServiceType        string
	ChargeableWeightKg *float64
	ShipmentID         string
}

// CalculateRate prices a single shipment. Every rejection is returned as a
// QuoteError (or bare sentinel) whose message is safe to surface to end
// users unchanged; backend failures are logged here and normalised to
// ErrRateLookup.
func (c *RateCalculator) CalculateRate(ctx context.Context, req RateRequest) (domain.RateQuote, error) {
	ctx, span := tracer.Start(ctx, "RateCalculator.CalculateRate")
	defer span.End()

	serviceType, ok := domain.NormalizeServiceType(req.ServiceType)
	if !ok {
		c.countQuote(ctx, "unknown_service", req.ServiceType)
		return domain.RateQuote{}, quoteError(ErrUnknownServiceType, fmt.Sprintf("unknown service type %q", req.ServiceType))
	}

	weight, err := c.resolveChargeableWeight(ctx, req)
	if err != nil {
		c.countQuote(ctx, "lookup_error", string(serviceType))
		return domain.RateQuote{}, err
	}
	if weight <= 0 {
		c.countQuote(ctx, "no_weight", string(serviceType))
		return domain.RateQuote{}, ErrNoChargeableWeight
	}

	zone := c.zones.FindZoneByCountry(ctx, req.TenantID, req.DestinationCountry)
	if zone == nil {
		c.countQuote(ctx, "zone_not_found", string(serviceType))
		return domain.RateQuote{}, ErrZoneNotFound
	}

	rate, err := c.rates.FindActiveRate(ctx, repositories.RateFilter{
		TenantID:    req.TenantID,
		WarehouseID: req.WarehouseID,
		ZoneID:      zone.ID,
		ServiceType: serviceType,
		On:          c.clock(),
	})
	if err != nil {
		if repositories.IsNotFound(err) {
			c.countQuote(ctx, "rate_not_found", string(serviceType))
			return domain.RateQuote{}, quoteError(ErrRateNotFound,
				fmt.Sprintf("no active %s rate found for this route", serviceType))
		}
		c.logger.Error("rate lookup failed",
			zap.String("tenantId", req.TenantID),
			zap.String("warehouseId", req.WarehouseID),
			zap.String("zoneId", zone.ID),
			zap.String("serviceType", string(serviceType)),
			zap.Error(err))
		c.countQuote(ctx, "lookup_error", string(serviceType))
		return domain.RateQuote{}, ErrRateLookup
	}

	if rate.MaxWeightKg != nil && weight > *rate.MaxWeightKg {
		c.countQuote(ctx, "weight_capped", string(serviceType))
		return domain.RateQuote{}, quoteError(ErrWeightExceedsLimit,
			fmt.Sprintf("chargeable weight %.2fkg exceeds maximum limit for %s service", weight, serviceType))
	}

	weightCharge := weight * rate.PerKgRate
	calculatedTotal := rate.BaseRate + weightCharge
	total := calculatedTotal
	minChargeApplied := calculatedTotal < rate.MinCharge
	if minChargeApplied {
		total = rate.MinCharge
	}

	quote := domain.RateQuote{
		QuoteID:            c.idGen(),
		ServiceType:        serviceType,
		BaseRate:           rate.BaseRate,
		PerKgRate:          rate.PerKgRate,
		WeightCharge:       weightCharge,
		TotalShippingCost:  total,
		MinCharge:          rate.MinCharge,
		Currency:           rate.Currency,
		ZoneName:           zone.Name,
		WarehouseName:      c.warehouseName(ctx, req.TenantID, req.WarehouseID),
		ChargeableWeightKg: weight,
		Breakdown: domain.RateBreakdown{
			BaseRate:          rate.BaseRate,
			PerKgRate:         rate.PerKgRate,
			WeightCharge:      weightCharge,
			CalculatedTotal:   calculatedTotal,
			MinCharge:         rate.MinCharge,
			MinChargeApplied:  minChargeApplied,
			TotalShippingCost: total,
		},
	}

	c.countQuote(ctx, "priced", string(serviceType))
	return quote, nil
}

// ServiceRequest describes an available-services enumeration for a route.
type ServiceRequest struct {
	TenantID           string
	WarehouseID        string
	DestinationCountry string
	ChargeableWeightKg *float64
	ShipmentID         string
}

// AvailableServices prices the route once per known service level and
// returns the ones that succeed. A lane with no express rate simply omits
// express; individual rejections never abort the enumeration.
func (c *RateCalculator) AvailableServices(ctx context.Context, req ServiceRequest) []domain.ServiceOption {
	ctx, span := tracer.Start(ctx, "RateCalculator.AvailableServices")
	defer span.End()

	options := make([]domain.ServiceOption, 0, len(domain.ServiceTypes()))
	for _, serviceType := range domain.ServiceTypes() {
		quote, err := c.CalculateRate(ctx, RateRequest{
			TenantID:           req.TenantID,
			WarehouseID:        req.WarehouseID,
			DestinationCountry: req.DestinationCountry,
			ServiceType:        string(serviceType),
			ChargeableWeightKg: req.ChargeableWeightKg,
			ShipmentID:         req.ShipmentID,
		})
		if err != nil {
			continue
		}
		options = append(options, domain.ServiceOption{ServiceType: serviceType, Quote: quote})
	}
	return options
}

// resolveChargeableWeight prefers an explicitly supplied weight, falling
// back to summing the shipment's packages.
func (c *RateCalculator) resolveChargeableWeight(ctx context.Context, req RateRequest) (float64, error) {
	if req.ChargeableWeightKg != nil {
		return *req.ChargeableWeightKg, nil
	}
	if req.ShipmentID == "" || c.packages == nil {
		return 0, nil
	}
	pkgs, err := c.packages.ListByShipment(ctx, req.TenantID, req.ShipmentID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return 0, nil
		}
		c.logger.Error("shipment package lookup failed",
			zap.String("tenantId", req.TenantID),
			zap.String("shipmentId", req.ShipmentID),
			zap.Error(err))
		return 0, ErrRateLookup
	}
	return TotalChargeableWeight(pkgs), nil
}

// warehouseName decorates the quote with the origin facility name. The
// lookup fails open: a quote is still priced when the warehouse record
// cannot be read.
func (c *RateCalculator) warehouseName(ctx context.Context, tenantID, warehouseID string) string {
	if c.warehouses == nil || warehouseID == "" {
		return ""
	}
	warehouse, err := c.warehouses.FindByID(ctx, tenantID, warehouseID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			c.logger.Warn("warehouse lookup failed",
				zap.String("tenantId", tenantID),
				zap.String("warehouseId", warehouseID),
				zap.Error(err))
		}
		return ""
	}
	return warehouse.Name
}

func (c *RateCalculator) countQuote(ctx context.Context, outcome, serviceType string) {
	if !c.quotesEnabled {
		return
	}
	c.quotes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("service_type", serviceType),
	))
}
