package services

import (
	"context"
	"math"
	"testing"
	"time"

	domain "github.com/parcelforward/api/internal/domain"
)

var feeNow = time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)

func newTestStorageCalculator(t *testing.T, pricing *fakePricingRepo, bins *fakeBinRepo, packages *fakePackageRepo) *StorageFeeCalculator {
	t.Helper()
	calc, err := NewStorageFeeCalculator(StorageFeeCalculatorDeps{
		Pricing:  pricing,
		Bins:     bins,
		Packages: packages,
		Clock:    func() time.Time { return feeNow },
	})
	if err != nil {
		t.Fatalf("NewStorageFeeCalculator error: %v", err)
	}
	return calc
}

func configuredPricing() *domain.StoragePricing {
	return &domain.StoragePricing{
		ID:                 "pricing_1",
		FreeDays:           7,
		DailyRateAfterFree: 2.00,
		Currency:           "USD",
		EffectiveFrom:      feeNow.AddDate(-1, 0, 0),
		IsActive:           true,
	}
}

func receivedDaysAgo(days int) *time.Time {
	t := feeNow.AddDate(0, 0, -days)
	return &t
}

func TestCalculateStorageFeesAfterFreeDays(t *testing.T) {
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, &fakeBinRepo{}, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{{ID: "pkg_1", ReceivedAt: receivedDaysAgo(10)}},
	})

	if len(statement.Breakdown) != 1 {
		t.Fatalf("expected 1 breakdown entry, got %d", len(statement.Breakdown))
	}
	entry := statement.Breakdown[0]
	if entry.DaysStored != 10 {
		t.Fatalf("days stored: want 10, got %d", entry.DaysStored)
	}
	if entry.FreeDaysUsed != 7 {
		t.Fatalf("free days used: want 7, got %d", entry.FreeDaysUsed)
	}
	if entry.ChargeableDays != 3 {
		t.Fatalf("chargeable days: want 3, got %d", entry.ChargeableDays)
	}
	if entry.PackageStorageFee != 6.00 {
		t.Fatalf("package fee: want 6.00, got %v", entry.PackageStorageFee)
	}
	if statement.TotalStorageFee != 6.00 {
		t.Fatalf("total fee: want 6.00, got %v", statement.TotalStorageFee)
	}
	if statement.Currency != "USD" {
		t.Fatalf("currency: want USD, got %q", statement.Currency)
	}
}

func TestCalculateStorageFeesNilReceivedAt(t *testing.T) {
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, &fakeBinRepo{}, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{{ID: "pkg_pending"}},
	})

	entry := statement.Breakdown[0]
	if entry.DaysStored != 0 || entry.ChargeableDays != 0 {
		t.Fatalf("nil receivedAt must accrue nothing, got %+v", entry)
	}
	if statement.TotalStorageFee != 0 {
		t.Fatalf("total fee: want 0, got %v", statement.TotalStorageFee)
	}
}

func TestCalculateStorageFeesWithinFreeDaysChargesBinPremiumOnly(t *testing.T) {
	bins := &fakeBinRepo{assignments: map[string]domain.BinAssignment{
		"pkg_1": {
			ID:         "assign_1",
			PackageID:  "pkg_1",
			Bin:        domain.BinLocation{Zone: "A", Code: "12", DailyPremium: f64(0.5)},
			AssignedAt: feeNow.AddDate(0, 0, -4),
		},
	}}
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, bins, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{{ID: "pkg_1", ReceivedAt: receivedDaysAgo(5)}},
	})

	entry := statement.Breakdown[0]
	if entry.ChargeableDays != 0 {
		t.Fatalf("within free days: want 0 chargeable days, got %d", entry.ChargeableDays)
	}
	if entry.BinLocationCost != 2.00 {
		t.Fatalf("bin cost: want 4 days * 0.5 = 2.00, got %v", entry.BinLocationCost)
	}
	if entry.BinLocationLabel != "A-12" {
		t.Fatalf("bin label: want A-12, got %q", entry.BinLocationLabel)
	}
	if entry.PackageStorageFee != 2.00 {
		t.Fatalf("package fee: want 2.00 (premium only), got %v", entry.PackageStorageFee)
	}
}

func TestCalculateStorageFeesBinLookupFailsOpen(t *testing.T) {
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, &fakeBinRepo{err: backendErr()}, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{{ID: "pkg_1", ReceivedAt: receivedDaysAgo(10)}},
	})

	entry := statement.Breakdown[0]
	if entry.BinLocationCost != 0 {
		t.Fatalf("bin lookup failure must charge no premium, got %v", entry.BinLocationCost)
	}
	if entry.PackageStorageFee != 6.00 {
		t.Fatalf("package fee: want 6.00, got %v", entry.PackageStorageFee)
	}
}

func TestCalculateStorageFeesRemovedAssignmentIgnored(t *testing.T) {
	bins := &fakeBinRepo{assignments: map[string]domain.BinAssignment{
		"pkg_1": {
			ID:         "assign_old",
			PackageID:  "pkg_1",
			Bin:        domain.BinLocation{Zone: "B", Code: "3", DailyPremium: f64(1)},
			AssignedAt: feeNow.AddDate(0, 0, -10),
			RemovedAt:  timePtr(feeNow.AddDate(0, 0, -2)),
		},
	}}
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, bins, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{{ID: "pkg_1", ReceivedAt: receivedDaysAgo(3)}},
	})

	if got := statement.Breakdown[0].BinLocationCost; got != 0 {
		t.Fatalf("removed assignment must charge no premium, got %v", got)
	}
}

func TestCalculateStorageFeesDefaultsWhenUnconfigured(t *testing.T) {
	calc := newTestStorageCalculator(t, &fakePricingRepo{}, &fakeBinRepo{}, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_new",
		Packages: []domain.Package{{ID: "pkg_1", ReceivedAt: receivedDaysAgo(9)}},
	})

	entry := statement.Breakdown[0]
	if entry.ChargeableDays != 2 || entry.DailyRate != 2.00 {
		t.Fatalf("default terms: want 2 chargeable days at 2.00, got %+v", entry)
	}
	if statement.TotalStorageFee != 4.00 || statement.Currency != "USD" {
		t.Fatalf("default statement: want 4.00 USD, got %v %q", statement.TotalStorageFee, statement.Currency)
	}
}

func TestCalculateStorageFeesPricingLookupFailureDegrades(t *testing.T) {
	calc := newTestStorageCalculator(t, &fakePricingRepo{err: backendErr()}, &fakeBinRepo{}, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{{ID: "pkg_1", ReceivedAt: receivedDaysAgo(8)}},
	})

	if statement.TotalStorageFee != 2.00 || statement.Currency != "USD" {
		t.Fatalf("fallback on lookup failure: want 2.00 USD, got %v %q", statement.TotalStorageFee, statement.Currency)
	}
}

func TestCalculateStorageFeesRoundsAggregateTotal(t *testing.T) {
	pricing := configuredPricing()
	pricing.DailyRateAfterFree = 0.333
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: pricing}, &fakeBinRepo{}, nil)

	statement := calc.CalculateStorageFees(context.Background(), StorageFeeCommand{
		TenantID: "tenant_1",
		Packages: []domain.Package{
			{ID: "pkg_1", ReceivedAt: receivedDaysAgo(8)},
			{ID: "pkg_2", ReceivedAt: receivedDaysAgo(9)},
		},
	})

	// 1 day + 2 days at 0.333 = 0.999, rounded to the cent.
	if statement.TotalStorageFee != 1.00 {
		t.Fatalf("total fee: want 1.00, got %v", statement.TotalStorageFee)
	}
	// Per-package figures stay unrounded.
	if math.Abs(statement.Breakdown[0].PackageStorageFee-0.333) > 1e-9 {
		t.Fatalf("per-package fee must stay unrounded, got %v", statement.Breakdown[0].PackageStorageFee)
	}
}

func TestCalculateStorageFeesByIDs(t *testing.T) {
	packages := &fakePackageRepo{byID: map[string]domain.Package{
		"pkg_1": {ID: "pkg_1", ReceivedAt: receivedDaysAgo(10)},
	}}
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, &fakeBinRepo{}, packages)

	statement, err := calc.CalculateStorageFeesByIDs(context.Background(), "tenant_1", []string{"pkg_1", "pkg_missing"}, time.Time{})
	if err != nil {
		t.Fatalf("CalculateStorageFeesByIDs error: %v", err)
	}
	if len(statement.Breakdown) != 1 || statement.TotalStorageFee != 6.00 {
		t.Fatalf("unexpected statement: %+v", statement)
	}
}

func TestEstimateStorageFee(t *testing.T) {
	calc := newTestStorageCalculator(t, &fakePricingRepo{pricing: configuredPricing()}, &fakeBinRepo{}, nil)

	estimate := calc.EstimateStorageFee(context.Background(), "tenant_1", []string{"a", "b", "c"}, 12)
	// 3 packages * (12-7) days * 2.00.
	if estimate.EstimatedFee != 30.00 {
		t.Fatalf("estimate: want 30.00, got %v", estimate.EstimatedFee)
	}
	if estimate.PackageCount != 3 || estimate.ProjectedDays != 12 {
		t.Fatalf("unexpected estimate metadata: %+v", estimate)
	}

	short := calc.EstimateStorageFee(context.Background(), "tenant_1", []string{"a"}, 5)
	if short.EstimatedFee != 0 {
		t.Fatalf("within free days: want 0, got %v", short.EstimatedFee)
	}
}

func TestNewStorageFeeCalculatorRequiresPricingRepo(t *testing.T) {
	if _, err := NewStorageFeeCalculator(StorageFeeCalculatorDeps{}); err == nil {
		t.Fatalf("expected constructor error without pricing repository")
	}
}
