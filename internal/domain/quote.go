package domain

// RateQuote is the priced outcome of a shipping rate calculation. The
// headline figures are flattened for quote endpoints while Breakdown repeats
// them for invoice rendering; both shapes are consumed downstream.
type RateQuote struct {
	QuoteID            string
	ServiceType        ServiceType
	BaseRate           float64
	PerKgRate          float64
	WeightCharge       float64
	TotalShippingCost  float64
	MinCharge          float64
	Currency           string
	ZoneName           string
	WarehouseName      string
	ChargeableWeightKg float64
	Breakdown          RateBreakdown
}

// RateBreakdown itemises how a quote total was reached.
type RateBreakdown struct {
	BaseRate          float64
	PerKgRate         float64
	WeightCharge      float64
	CalculatedTotal   float64
	MinCharge         float64
	MinChargeApplied  bool
	TotalShippingCost float64
}

// ServiceOption pairs an available service level with its quote.
type ServiceOption struct {
	ServiceType ServiceType
	Quote       RateQuote
}

// StorageFeeStatement aggregates accrued storage fees across packages.
type StorageFeeStatement struct {
	TotalStorageFee float64
	Currency        string
	Breakdown       []PackageStorageFee
}

// PackageStorageFee details the accrual for a single package.
type PackageStorageFee struct {
	PackageID         string
	DaysStored        int
	FreeDaysUsed      int
	ChargeableDays    int
	DailyRate         float64
	BinLocationCost   float64
	BinLocationLabel  string
	PackageStorageFee float64
}

// StorageFeeEstimate is a rough pre-receipt projection of storage cost.
type StorageFeeEstimate struct {
	EstimatedFee  float64
	Currency      string
	ProjectedDays int
	PackageCount  int
}
