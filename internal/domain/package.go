package domain

import (
	"time"
)

// Package describes a single received parcel as recorded at warehouse intake.
// All fields are owned by the intake/CRUD layer; this core only reads them.
type Package struct {
	ID          string
	TenantID    string
	ShipmentID  string
	WarehouseID string

	// WeightActualKg is the scale weight captured at intake.
	WeightActualKg *float64

	// Dimensions in centimetres. Any of them may be missing when the
	// package was never measured.
	LengthCm *float64
	WidthCm  *float64
	HeightCm *float64

	// ChargeableWeightKg caches the billing weight computed at intake.
	// When present it is preferred over recomputing from dimensions.
	ChargeableWeightKg *float64

	// ReceivedAt is nil for packages announced but not yet on the shelf.
	ReceivedAt *time.Time
}

// Warehouse identifies a physical receiving facility.
type Warehouse struct {
	ID       string
	TenantID string
	Name     string
	Country  string
}

// BinLocation is a physical storage slot inside a warehouse. Premium slots
// (climate controlled, high value cage) carry a daily surcharge.
type BinLocation struct {
	ID           string
	TenantID     string
	WarehouseID  string
	Zone         string
	Code         string
	DailyPremium *float64
	IsActive     bool
}

// BinAssignment links a package to a bin location. A nil RemovedAt marks the
// assignment as current; a package has at most one current assignment.
type BinAssignment struct {
	ID         string
	PackageID  string
	Bin        BinLocation
	AssignedAt time.Time
	RemovedAt  *time.Time
}

// Label renders the human-readable slot reference shown on invoices.
func (a BinAssignment) Label() string {
	if a.Bin.Zone == "" {
		return a.Bin.Code
	}
	return a.Bin.Zone + "-" + a.Bin.Code
}

// Current reports whether the assignment is still in effect.
func (a BinAssignment) Current() bool {
	return a.RemovedAt == nil
}
