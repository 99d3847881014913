package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing & Accessories"
	CategoryHome        Category = "Home & Garden"
	CategoryBooks       Category = "Books & Media"
	CategorySports      Category = "Sports & Fitness"
	CategoryToys        Category = "Toys & Games"
	CategoryAutomotive  Category = "Automotive"
	CategoryHealth      Category = "Health & Beauty"
	CategoryJewelry     Category = "Jewelry & Watches"
	CategoryFurniture   Category = "Furniture"
	CategoryOther       Category = "Other"
)

var categories = []Category{
	CategoryElectronics, CategoryClothing, CategoryHome, CategoryBooks, CategorySports,
	CategoryToys, CategoryAutomotive, CategoryHealth, CategoryJewelry, CategoryFurniture, CategoryOther,
}

func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
	ConditionPoor    Condition = "Poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

type Product struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Condition   Condition       `json:"condition"`
	IsAvailable bool            `json:"is_available"`
	Location    Location        `json:"location"`
	Tags        []string        `json:"tags"`
	Views       int64           `json:"views"`
	Likes       []string        `json:"likes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

func (p *Product) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)

	switch {
	case p.SellerID == "":
		return fmt.Errorf("%w: seller is required", ErrValidation)
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case len(p.Title) > maxTitleLen:
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, maxTitleLen)
	case p.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case len(p.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxDescriptionLen)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	case !p.Condition.Valid():
		return fmt.Errorf("%w: unknown condition %q", ErrValidation, p.Condition)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case p.Views < 0:
		return fmt.Errorf("%w: views must not be negative", ErrValidation)
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: image url must not be empty", ErrValidation)
		}
	}
	return nil
}

func (p *Product) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// ProductPatch carries the fields a seller may change. Nil means unchanged.
type ProductPatch struct {
	Title       *string
	Description *string
	Category    *Category
	Price       *decimal.Decimal
	Images      []string
	Condition   *Condition
	IsAvailable *bool
	Location    *Location
	Tags        []string
}

// Apply copies the set fields onto p and revalidates it.
func (pp ProductPatch) Apply(p *Product) error {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Images != nil {
		p.Images = pp.Images
	}
	if pp.Condition != nil {
		p.Condition = *pp.Condition
	}
	if pp.IsAvailable != nil {
		p.IsAvailable = *pp.IsAvailable
	}
	if pp.Location != nil {
		p.Location = *pp.Location
	}
	if pp.Tags != nil {
		p.Tags = pp.Tags
	}
	return p.Validate()
}

type LikeResult struct {
	IsLiked    bool `json:"is_liked"`
	LikesCount int  `json:"likes_count"`
}
