package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/middleware"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

type CartService interface {
	Get(ctx context.Context, cartID string) (*models.CartView, error)
	AddItem(ctx context.Context, cartID string, in services.AddItemInput) (*models.CartView, error)
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*models.CartView, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*models.CartView, error)
	ClearCart(ctx context.Context, cartID string) error
}

type CartController struct {
	carts CartService
}

func NewCartController(carts CartService) *CartController {
	return &CartController{carts: carts}
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart returns the session cart with its total and item count.
func (cc *CartController) GetCart(c *gin.Context) {
	view, err := cc.carts.Get(c.Request.Context(), middleware.CartID(c))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItem adds a menu item (optionally sized) to the cart, merging with an
// existing line for the same item and size.
func (cc *CartController) AddItem(c *gin.Context) {
	var in services.AddItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request", err))
		return
	}

	view, err := cc.carts.AddItem(c.Request.Context(), middleware.CartID(c), in)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request", err))
		return
	}

	view, err := cc.carts.UpdateQuantity(c.Request.Context(), middleware.CartID(c), c.Param("id"), *req.Quantity)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	view, err := cc.carts.RemoveItem(c.Request.Context(), middleware.CartID(c), c.Param("id"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	if err := cc.carts.ClearCart(c.Request.Context(), middleware.CartID(c)); err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
