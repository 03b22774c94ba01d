package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petstore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, else defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name_uk":    true,
	"price":      true,
	"stock":      true,
}

// CategorySortFields contains allowed sort fields for categories
var CategorySortFields = map[string]bool{
	"created_at": true,
	"code":       true,
	"name_uk":    true,
	"sort_order": true,
	"level":      true,
}

// SupplierSortFields contains allowed sort fields for suppliers
var SupplierSortFields = map[string]bool{
	"created_at":        true,
	"code":              true,
	"name":              true,
	"payment_term_days": true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"city":       true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":   true,
	"order_number": true,
	"total_amount": true,
	"status":       true,
}

// ReceiptSortFields contains allowed sort fields for receipts
var ReceiptSortFields = map[string]bool{
	"created_at":     true,
	"receipt_number": true,
	"receipt_date":   true,
	"due_date":       true,
	"supplier_value": true,
}

// ExpenseSortFields contains allowed sort fields for expenses
var ExpenseSortFields = map[string]bool{
	"created_at":   true,
	"expense_date": true,
	"amount":       true,
	"category":     true,
}

// paginate applies ordering and, when both page and size are set, offset/limit
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultOrder string) *gorm.DB {
	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, allowed, "")
		if field != "" {
			query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
		} else {
			query = query.Order(defaultOrder)
		}
	} else {
		query = query.Order(defaultOrder)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive substring pattern. Works on both
// sqlite and postgres when paired with LOWER(column).
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// timeFilter reads a time bound from a filter map
func timeFilter(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v != nil {
			return *v, !v.IsZero()
		}
	}
	return time.Time{}, false
}

// boolFilter reads a bool from a filter map
func boolFilter(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case *bool:
		if v != nil {
			return *v, true
		}
	}
	return false, false
}

// widen pads a half-open window by a day on each side. Sqlite stores
// timestamps as text with their offset, so range predicates are evaluated
// loosely in SQL and exactly in Go with inWindow.
func widen(from, to time.Time) (time.Time, time.Time) {
	return from.Add(-24 * time.Hour), to.Add(24 * time.Hour)
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// nextSequence finds the highest "<prefix>-<year>-NNNNN" value in column
// and returns the following number.
func nextSequence(db *gorm.DB, model any, column, prefix string, now time.Time) (string, error) {
	head := fmt.Sprintf("%s-%d-", prefix, now.Year())

	var numbers []string
	err := db.Model(model).
		Where(column+" LIKE ?", head+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil {
		return "", err
	}

	seq := 0
	if len(numbers) > 0 {
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(numbers[0], head), "%d", &seq); scanErr != nil {
			seq = 0
		}
	}
	return fmt.Sprintf("%s%05d", head, seq+1), nil
}
