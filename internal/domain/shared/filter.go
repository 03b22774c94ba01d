package shared

import "maps"

// Filter is the list query every repository accepts. Filters holds
// repository-specific conditions keyed by name, e.g. "low_stock" or "overdue";
// unknown keys are ignored by the repository. A zero PageSize means no paging.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// Unpaged matches every row in the repository's default order
func Unpaged() Filter {
	return Filter{Filters: map[string]any{}}
}

// With returns a copy of f with one more condition
func (f Filter) With(key string, value any) Filter {
	next := maps.Clone(f.Filters)
	if next == nil {
		next = map[string]any{}
	}
	next[key] = value
	f.Filters = next
	return f
}
