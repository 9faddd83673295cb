package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/common/validation"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/repository"
)

// CartStorage persists whole carts.
type CartStorage interface {
	Load(ctx context.Context, cartID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, cartID string) error
}

// MenuLookup resolves catalog entries for pricing.
type MenuLookup interface {
	FindItemByID(ctx context.Context, id string) (*models.MenuItem, error)
}

type AddItemInput struct {
	MenuItemID string  `json:"menu_item_id" binding:"required" validate:"notblank"`
	Size       *string `json:"size"`
	Quantity   int     `json:"quantity" validate:"gte=0"`
}

// ValidateCartID checks a client-generated cart session id.
func ValidateCartID(cartID string) error {
	if !validation.CartID(cartID) {
		return apperrors.BadRequest("Missing or invalid cart id", nil)
	}
	return nil
}

// CartStore owns the cart of each client session. Every mutation loads the
// cart, applies the change and saves the whole document.
type CartStore struct {
	storage CartStorage
	menu    MenuLookup
	log     *zap.Logger
}

func NewCartStore(storage CartStorage, menu MenuLookup, log *zap.Logger) *CartStore {
	return &CartStore{storage: storage, menu: menu, log: log}
}

func (s *CartStore) load(ctx context.Context, cartID string) (*models.Cart, error) {
	if err := ValidateCartID(cartID); err != nil {
		return nil, err
	}
	cart, err := s.storage.Load(ctx, cartID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	return cart, nil
}

func (s *CartStore) save(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	if err := s.storage.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal("Failed to save cart", err)
	}
	view := cart.View()
	return &view, nil
}

// Cart returns the raw cart for checkout.
func (s *CartStore) Cart(ctx context.Context, cartID string) (*models.Cart, error) {
	return s.load(ctx, cartID)
}

func (s *CartStore) Get(ctx context.Context, cartID string) (*models.CartView, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	view := cart.View()
	return &view, nil
}

// AddItem prices the entry from the catalog and merges it into the cart.
func (s *CartStore) AddItem(ctx context.Context, cartID string, in AddItemInput) (*models.CartView, error) {
	if problems := validation.Struct(in); len(problems) > 0 {
		return nil, apperrors.Validation(problems)
	}
	if in.Size != nil && *in.Size == "" {
		in.Size = nil
	}

	item, err := s.menu.FindItemByID(ctx, in.MenuItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Menu item not found")
		}
		return nil, apperrors.Internal("Failed to load menu item", err)
	}
	if !item.Available {
		return nil, apperrors.Conflict("This item is currently unavailable", models.ErrItemUnavailable)
	}
	price, err := item.PriceFor(in.Size)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid size for this item", err)
	}

	cart, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	menuItemID := item.ID.String()
	cart.Add(models.CartItem{
		ID:        models.CompositeID(menuItemID, in.Size),
		Name:      item.Name,
		UnitPrice: price,
		Size:      in.Size,
		Quantity:  in.Quantity,
		ImageURL:  item.ImageURL,
	})

	s.log.Debug("cart item added",
		zap.String("cart_id", cartID),
		zap.String("menu_item_id", menuItemID),
		zap.Int("quantity", in.Quantity),
	)
	return s.save(ctx, cart)
}

// UpdateQuantity sets an entry's quantity; zero or below removes it and an
// unknown id leaves the cart unchanged.
func (s *CartStore) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*models.CartView, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.SetQuantity(itemID, quantity) {
		view := cart.View()
		return &view, nil
	}
	return s.save(ctx, cart)
}

func (s *CartStore) RemoveItem(ctx context.Context, cartID, itemID string) (*models.CartView, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Remove(itemID) {
		view := cart.View()
		return &view, nil
	}
	return s.save(ctx, cart)
}

func (s *CartStore) ClearCart(ctx context.Context, cartID string) error {
	if err := ValidateCartID(cartID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, cartID); err != nil {
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}
