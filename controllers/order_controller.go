package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/middleware"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

type OrderReader interface {
	GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*services.OrderResponse, error)
}

type OrderController struct {
	orders OrderReader
}

func NewOrderController(orders OrderReader) *OrderController {
	return &OrderController{orders: orders}
}

// GetOrders returns paginated orders for the authenticated user
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Abort(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	page, limit := parsePaginationParams(c)
	result, err := oc.orders.ListUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrderByID backs the order confirmation page.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Abort(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid order ID format", err))
		return
	}

	order, err := oc.orders.GetOrderForUser(c.Request.Context(), userID, orderID)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// parsePaginationParams falls back to page 1; the service bounds limit.
func parsePaginationParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}
	return page, limit
}
