package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a cart. ID is the composite id: the menu item id,
// suffixed with "-<size>" when a size variant was chosen.
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      *string         `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MenuItemID returns the catalog id the entry refers to.
func (i CartItem) MenuItemID() string {
	return MenuItemIDFromComposite(i.ID, i.Size)
}

// CompositeID builds the cart key for a menu item and optional size.
func CompositeID(menuItemID string, size *string) string {
	if size == nil || *size == "" {
		return menuItemID
	}
	return menuItemID + "-" + *size
}

// MenuItemIDFromComposite strips the "-<size>" suffix. Catalog ids may
// themselves contain dashes, so only an exact size suffix is removed.
func MenuItemIDFromComposite(compositeID string, size *string) string {
	if size == nil || *size == "" {
		return compositeID
	}
	return strings.TrimSuffix(compositeID, "-"+*size)
}

// Cart is the pre-checkout set of items for one client session.
type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(id string) *Cart {
	return &Cart{ID: id, Items: []CartItem{}}
}

// Add merges item into the cart. A quantity below one counts as one.
func (c *Cart) Add(item CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// SetQuantity sets the quantity of an entry. A quantity of zero or below
// removes it. Reports whether the cart changed.
func (c *Cart) SetQuantity(id string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(id)
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			if c.Items[i].Quantity == quantity {
				return false
			}
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove deletes an entry; absent ids are a no-op.
func (c *Cart) Remove(id string) bool {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) Find(id string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// Total is recomputed from the items on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartView is the cart as returned to clients, with derived values.
type CartView struct {
	*Cart
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (c *Cart) View() CartView {
	return CartView{Cart: c, Total: c.Total(), ItemCount: c.ItemCount()}
}
