package domain

import (
	"strings"
	"time"
)

// ServiceType enumerates the shipping service levels a tenant may price.
type ServiceType string

const (
	// ServiceStandard is the default service level.
	ServiceStandard ServiceType = "standard"
	// ServiceExpress is the premium, fastest service level.
	ServiceExpress ServiceType = "express"
	// ServiceEconomy is the slowest, cheapest service level.
	ServiceEconomy ServiceType = "economy"
)

// ServiceTypes lists every known service level in enumeration order.
func ServiceTypes() []ServiceType {
	return []ServiceType{ServiceStandard, ServiceExpress, ServiceEconomy}
}

// NormalizeServiceType maps free-form input onto a known service level,
// defaulting to standard for empty input.
func NormalizeServiceType(raw string) (ServiceType, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ServiceStandard, true
	}
	for _, st := range ServiceTypes() {
		if string(st) == trimmed {
			return st, true
		}
	}
	return "", false
}

// Zone is a tenant-defined group of destination countries sharing one rate
// table. Each country belongs to at most one active zone per tenant.
type Zone struct {
	ID        string
	TenantID  string
	Name      string
	Countries []string
	IsActive  bool
}

// ShippingRate prices one (warehouse, zone, service type) lane for a tenant.
type ShippingRate struct {
	ID          string
	TenantID    string
	WarehouseID string
	ZoneID      string
	ServiceType ServiceType

	BaseRate  float64
	PerKgRate float64
	MinCharge float64
	// MaxWeightKg caps the lane; nil means uncapped.
	MaxWeightKg *float64
	Currency    string

	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	IsActive       bool
}

// ValidOn reports whether the rate is active and inside its effective window
// at the given instant.
func (r ShippingRate) ValidOn(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if t.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveUntil != nil && t.After(*r.EffectiveUntil) {
		return false
	}
	return true
}

// StoragePricing configures a tenant's storage fee accrual terms.
type StoragePricing struct {
	ID                 string
	TenantID           string
	FreeDays           int
	DailyRateAfterFree float64
	Currency           string
	EffectiveFrom      time.Time
	EffectiveUntil     *time.Time
	IsActive           bool
}

// ValidOn reports whether the pricing row applies at the given instant.
func (p StoragePricing) ValidOn(t time.Time) bool {
	if !p.IsActive {
		return false
	}
	if t.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveUntil != nil && t.After(*p.EffectiveUntil) {
		return false
	}
	return true
}
