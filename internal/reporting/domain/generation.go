package reporting

import (
	"github.com/shopspring/decimal"

	clients "energy-accounting/internal/clients/domain"
)

var (
	hundred = decimal.NewFromInt(100)
)

// CapacityBasis records which capacities were usable for average generation.
type CapacityBasis string

const (
	CapacityBasisDCAC CapacityBasis = "dc_ac"
	CapacityBasisDC   CapacityBasis = "dc"
	CapacityBasisAC   CapacityBasis = "ac"
	CapacityBasisNone CapacityBasis = "none"
)

// ResolveCapacityBasis inspects both capacities of a profile.
func ResolveCapacityBasis(profile clients.EnergyProfile) CapacityBasis {
	dc := profile.DCCapacityKWp.Valid()
	ac := profile.ACCapacityKW.Valid()
	switch {
	case dc && ac:
		return CapacityBasisDCAC
	case dc:
		return CapacityBasisDC
	case ac:
		return CapacityBasisAC
	default:
		return CapacityBasisNone
	}
}

// AvgGeneration is export / capacity, or zero when the capacity is unusable.
func AvgGeneration(exportKWh decimal.Decimal, capacity clients.Capacity) decimal.Decimal {
	value, ok := capacity.Value()
	if !ok {
		return decimal.Zero
	}
	return exportKWh.Div(value)
}

// MeanOf is the arithmetic mean, zero for an empty slice. It matches a
// spreadsheet AVERAGE over the same cells.
func MeanOf(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}

// Percent is part/whole*100, zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func kwhToMWh(kwh decimal.Decimal) decimal.Decimal {
	return kwh.Shift(-3)
}

func mwhToKWh(mwh decimal.Decimal) decimal.Decimal {
	return mwh.Shift(3)
}
