package warehouse

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement is what the shop owes one supplier. Amounts are supplier value
// of posted receipts; extra cost is paid to carriers and not included.
type Settlement struct {
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	ReceiptCount  int             `json:"receipt_count"`
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	OverdueCount  int             `json:"overdue_count"`
	NextDueDate   *time.Time      `json:"next_due_date,omitempty"`
}

// HasDebt reports whether anything is outstanding
func (s Settlement) HasDebt() bool {
	return s.Outstanding.IsPositive()
}

// Settle computes the settlement for one supplier from its receipts.
// Unposted receipts are ignored. NextDueDate is the earliest due date of an
// unpaid receipt that is not yet overdue.
func Settle(supplierID uuid.UUID, supplierName string, receipts []Receipt, now time.Time) Settlement {
	s := Settlement{
		SupplierID:    supplierID,
		SupplierName:  supplierName,
		TotalReceived: decimal.Zero,
		TotalPaid:     decimal.Zero,
		Outstanding:   decimal.Zero,
		OverdueAmount: decimal.Zero,
	}

	for i := range receipts {
		r := &receipts[i]
		if r.SupplierID != supplierID || !r.IsPosted {
			continue
		}
		s.ReceiptCount++
		s.TotalReceived = s.TotalReceived.Add(r.SupplierValue)
		if r.IsPaid {
			s.TotalPaid = s.TotalPaid.Add(r.SupplierValue)
			continue
		}
		s.Outstanding = s.Outstanding.Add(r.SupplierValue)
		if r.IsOverdue(now) {
			s.OverdueAmount = s.OverdueAmount.Add(r.SupplierValue)
			s.OverdueCount++
			continue
		}
		if s.NextDueDate == nil || r.DueDate.Before(*s.NextDueDate) {
			due := r.DueDate
			s.NextDueDate = &due
		}
	}

	return s
}

// SettleAll groups receipts by supplier and settles each. names maps supplier
// ids to display names; suppliers listed there with no receipts still appear
// with zero amounts. The result is ordered by outstanding amount, largest first.
func SettleAll(names map[uuid.UUID]string, receipts []Receipt, now time.Time) []Settlement {
	bySupplier := make(map[uuid.UUID][]Receipt)
	for _, r := range receipts {
		bySupplier[r.SupplierID] = append(bySupplier[r.SupplierID], r)
	}
	for id := range names {
		if _, ok := bySupplier[id]; !ok {
			bySupplier[id] = nil
		}
	}

	result := make([]Settlement, 0, len(bySupplier))
	for id, rs := range bySupplier {
		name, ok := names[id]
		if !ok && len(rs) > 0 {
			name = rs[0].SupplierName
		}
		result = append(result, Settle(id, name, rs, now))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Outstanding.Equal(result[j].Outstanding) {
			return result[i].Outstanding.GreaterThan(result[j].Outstanding)
		}
		return result[i].SupplierName < result[j].SupplierName
	})
	return result
}

// SettlementSummary totals settlements across suppliers
type SettlementSummary struct {
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	TotalOverdue      decimal.Decimal `json:"total_overdue"`
	OverdueCount      int             `json:"overdue_count"`
	SuppliersWithDebt int             `json:"suppliers_with_debt"`
}

// Summarize totals a list of settlements
func Summarize(settlements []Settlement) SettlementSummary {
	sum := SettlementSummary{
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
	}
	for _, s := range settlements {
		sum.TotalOutstanding = sum.TotalOutstanding.Add(s.Outstanding)
		sum.TotalOverdue = sum.TotalOverdue.Add(s.OverdueAmount)
		sum.OverdueCount += s.OverdueCount
		if s.HasDebt() {
			sum.SuppliersWithDebt++
		}
	}
	return sum
}
