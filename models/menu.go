package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"
)

var (
	ErrUnknownSize     = errors.New("unknown size")
	ErrItemUnavailable = errors.New("menu item is unavailable")
)

type MenuCategory struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	DisplayOrder int        `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	Items        []MenuItem `gorm:"foreignKey:CategoryID" json:"items,omitempty"`
}

// MenuItem is a catalog entry. Items either have a single Price or
// per-size prices.
type MenuItem struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Name        string           `gorm:"type:varchar(150);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Price       *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price,omitempty"`
	PriceSmall  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_small,omitempty"`
	PriceMedium *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_medium,omitempty"`
	PriceLarge  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"price_large,omitempty"`
	ImageURL    *string          `gorm:"type:text" json:"image_url,omitempty"`
	Available   bool             `gorm:"not null;default:true" json:"available"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (m *MenuItem) HasSizes() bool {
	return m.PriceSmall != nil || m.PriceMedium != nil || m.PriceLarge != nil
}

// PriceFor returns the unit price for the requested size. Sized items
// require a size; unsized items reject one.
func (m *MenuItem) PriceFor(size *string) (decimal.Decimal, error) {
	if !m.HasSizes() {
		if size != nil && *size != "" {
			return decimal.Zero, fmt.Errorf("%w: %s has no size options", ErrUnknownSize, m.Name)
		}
		if m.Price == nil {
			return decimal.Zero, fmt.Errorf("menu item %s has no price", m.Name)
		}
		return *m.Price, nil
	}
	if size == nil || *size == "" {
		return decimal.Zero, fmt.Errorf("%w: %s requires a size", ErrUnknownSize, m.Name)
	}
	var p *decimal.Decimal
	switch *size {
	case SizeSmall:
		p = m.PriceSmall
	case SizeMedium:
		p = m.PriceMedium
	case SizeLarge:
		p = m.PriceLarge
	}
	if p == nil {
		return decimal.Zero, fmt.Errorf("%w: %q for %s", ErrUnknownSize, *size, m.Name)
	}
	return *p, nil
}
