package warehouse

import (
	"fmt"

	"github.com/petstore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationScale is the number of decimal places allocations are rounded to
const AllocationScale = 4

// CostLine is one receipt line fed to the allocator
type CostLine struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// SupplierTotal is quantity × supplier unit price
func (l CostLine) SupplierTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LandedCost is the allocator output for one line
type LandedCost struct {
	SupplierTotal  decimal.Decimal `json:"supplier_total"`
	AllocatedExtra decimal.Decimal `json:"allocated_extra"`
	LandedTotal    decimal.Decimal `json:"landed_total"`
	LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
}

// AllocateExtraCost spreads extraCost over the lines in proportion to each
// line's supplier total:
//
//	allocated = extraCost × lineTotal / Σ lineTotal
//	landedUnit = (lineTotal + allocated) / quantity
//
// Allocations are rounded to AllocationScale places and the rounding
// remainder is added to the line with the largest supplier total, so the
// allocations always sum to extraCost. When every line total is zero
// nothing is allocated.
func AllocateExtraCost(lines []CostLine, extraCost decimal.Decimal) ([]LandedCost, error) {
	if extraCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_EXTRA_COST", "Extra cost cannot be negative")
	}

	sum := decimal.Zero
	largest := -1
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Line %d: quantity must be positive", i+1))
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", fmt.Sprintf("Line %d: unit price cannot be negative", i+1))
		}
		total := line.SupplierTotal()
		sum = sum.Add(total)
		if largest < 0 || total.GreaterThan(lines[largest].SupplierTotal()) {
			largest = i
		}
	}

	result := make([]LandedCost, len(lines))
	allocatedSum := decimal.Zero
	for i, line := range lines {
		total := line.SupplierTotal()
		allocated := decimal.Zero
		if sum.IsPositive() {
			allocated = extraCost.Mul(total).Div(sum).Round(AllocationScale)
		}
		allocatedSum = allocatedSum.Add(allocated)
		result[i] = LandedCost{SupplierTotal: total, AllocatedExtra: allocated}
	}

	if sum.IsPositive() && largest >= 0 {
		if remainder := extraCost.Sub(allocatedSum); !remainder.IsZero() {
			result[largest].AllocatedExtra = result[largest].AllocatedExtra.Add(remainder)
		}
	}

	for i, line := range lines {
		landed := result[i].SupplierTotal.Add(result[i].AllocatedExtra)
		result[i].LandedTotal = landed
		result[i].LandedUnitCost = landed.Div(decimal.NewFromInt(int64(line.Quantity))).Round(AllocationScale)
	}

	return result, nil
}
