package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByPrice     SortField = "price"
	SortByViews     SortField = "views"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type SearchFilter struct {
	Query     string
	Category  Category
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Normalize fills defaults and rejects filters that cannot be executed.
func (f *SearchFilter) Normalize() error {
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageLimit
	}

	switch f.SortBy {
	case SortByCreatedAt, SortByPrice, SortByViews, SortByTitle:
	default:
		return fmt.Errorf("%w: cannot sort by %q", ErrValidation, f.SortBy)
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		return fmt.Errorf("%w: sort order must be asc or desc", ErrValidation)
	}
	if f.Page < 1 {
		return fmt.Errorf("%w: page must be positive", ErrValidation)
	}
	if f.Limit < 1 || f.Limit > MaxPageLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxPageLimit)
	}
	if int64(f.Page) > math.MaxInt64/int64(f.Limit) {
		return fmt.Errorf("%w: page is too large", ErrValidation)
	}
	if f.Category != "" && !f.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, f.Category)
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return fmt.Errorf("%w: min price must not be negative", ErrValidation)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return fmt.Errorf("%w: min price is greater than max price", ErrValidation)
	}
	return nil
}

func (f SearchFilter) Skip() int64 {
	return int64(f.Page-1) * int64(f.Limit)
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

func NewPagination(f SearchFilter, total int64, returned int) Pagination {
	limit := int64(f.Limit)
	return Pagination{
		CurrentPage: f.Page,
		TotalPages:  (total + limit - 1) / limit,
		Total:       total,
		HasNext:     f.Skip()+int64(returned) < total,
		HasPrev:     f.Page > 1,
	}
}

type ProductPage struct {
	Products   []*Product `json:"products"`
	Pagination Pagination `json:"pagination"`
}
