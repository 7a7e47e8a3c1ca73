package enums

import "fmt"

// ReviewFilter selects which reviews an admin listing returns.
type ReviewFilter string

const (
	ReviewFilterAll      ReviewFilter = "all"
	ReviewFilterPending  ReviewFilter = "pending"
	ReviewFilterApproved ReviewFilter = "approved"
)

var validReviewFilters = []ReviewFilter{
	ReviewFilterAll,
	ReviewFilterPending,
	ReviewFilterApproved,
}

// String implements fmt.Stringer.
func (r ReviewFilter) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReviewFilter.
func (r ReviewFilter) IsValid() bool {
	for _, candidate := range validReviewFilters {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReviewFilter converts raw input into a ReviewFilter.
func ParseReviewFilter(value string) (ReviewFilter, error) {
	for _, candidate := range validReviewFilters {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review filter %q", value)
}
