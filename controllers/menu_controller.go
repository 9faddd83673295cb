package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/models"
)

type MenuLister interface {
	ListMenu(ctx context.Context) ([]models.MenuCategory, error)
}

type MenuController struct {
	menu MenuLister
}

func NewMenuController(menu MenuLister) *MenuController {
	return &MenuController{menu: menu}
}

func (mc *MenuController) GetMenu(c *gin.Context) {
	categories, err := mc.menu.ListMenu(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
