package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

type DashboardLoader interface {
	Load(ctx context.Context, filter *models.OrderStatus) (*services.DashboardView, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error)
	ApplyAction(ctx context.Context, orderID uuid.UUID, action models.OrderAction) (*models.Order, error)
}

type DashboardController struct {
	dashboard DashboardLoader
	orders    StatusUpdater
}

func NewDashboardController(dashboard DashboardLoader, orders StatusUpdater) *DashboardController {
	return &DashboardController{dashboard: dashboard, orders: orders}
}

// updateStatusRequest takes either a target status or a dashboard action.
type updateStatusRequest struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// ListOrders returns the newest page of orders, counts per status and the
// actions available on each order. ?status= filters the page.
func (dc *DashboardController) ListOrders(c *gin.Context) {
	filter, err := services.ParseStatusFilter(c.Query("status"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	view, err := dc.dashboard.Load(c.Request.Context(), filter)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (dc *DashboardController) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid order ID format", err))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request", err))
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if (status == "") == (action == "") {
		apperrors.Abort(c, apperrors.BadRequest("Provide exactly one of status or action", nil))
		return
	}

	var order *models.Order
	if status != "" {
		order, err = dc.orders.UpdateStatus(c.Request.Context(), orderID, models.OrderStatus(status))
	} else {
		order, err = dc.orders.ApplyAction(c.Request.Context(), orderID, models.OrderAction(action))
	}
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":   order,
		"actions": models.ActionsFor(order.Status),
	})
}
