package services

import (
	domain "github.com/parcelforward/api/internal/domain"
)

// volumetricDivisor is the industry-standard cm³→kg divisor for air freight.
const volumetricDivisor = 5000.0

// VolumetricWeight derives the dimensional weight in kg from package
// dimensions in cm. It returns nil unless all three dimensions are present
// and positive; bulky-but-light packages are billed on this figure.
func VolumetricWeight(lengthCm, widthCm, heightCm *float64) *float64 {
	if !positive(lengthCm) || !positive(widthCm) || !positive(heightCm) {
		return nil
	}
	vw := (*lengthCm * *widthCm * *heightCm) / volumetricDivisor
	return &vw
}

// ChargeableWeight returns the billing weight: the greater of actual and
// volumetric weight, treating a missing value as 0. It returns nil only when
// both inputs are absent.
func ChargeableWeight(actualKg, volumetricKg *float64) *float64 {
	if actualKg == nil && volumetricKg == nil {
		return nil
	}
	actual := 0.0
	if actualKg != nil {
		actual = *actualKg
	}
	volumetric := 0.0
	if volumetricKg != nil {
		volumetric = *volumetricKg
	}
	cw := actual
	if volumetric > cw {
		cw = volumetric
	}
	return &cw
}

// TotalChargeableWeight sums chargeable weight across packages. The cached
// ChargeableWeightKg captured at intake is preferred; only unmeasured
// packages are derived on the fly. Packages with no weight data at all
// contribute 0.
func TotalChargeableWeight(pkgs []domain.Package) float64 {
	var total float64
	for _, pkg := range pkgs {
		if cw := packageChargeableWeight(pkg); cw != nil {
			total += *cw
		}
	}
	return total
}

// packageChargeableWeight resolves one package's billing weight, preferring
// the intake-cached value.
func packageChargeableWeight(pkg domain.Package) *float64 {
	if pkg.ChargeableWeightKg != nil {
		return pkg.ChargeableWeightKg
	}
	return ChargeableWeight(pkg.WeightActualKg, VolumetricWeight(pkg.LengthCm, pkg.WidthCm, pkg.HeightCm))
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
