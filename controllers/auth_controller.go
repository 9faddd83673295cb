package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/websitedesigna/tastygrill/common/auth"
	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/middleware"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in services.ProfileInput) (*models.User, error)
}

type AuthController struct {
	auth AuthAPI
}

func NewAuthController(a AuthAPI) *AuthController {
	return &AuthController{auth: a}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request", err))
		return
	}

	res, err := ac.auth.Register(c.Request.Context(), in)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request", err))
		return
	}

	res, err := ac.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout revokes the presented token until it would have expired.
func (ac *AuthController) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		apperrors.Abort(c, apperrors.Unauthorized("Unauthorized"))
		return
	}
	if err := ac.auth.Logout(c.Request.Context(), claims); err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (ac *AuthController) Me(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Abort(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	user, err := ac.auth.Me(c.Request.Context(), userID)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Abort(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apperrors.Abort(c, apperrors.BadRequest("Invalid request", err))
		return
	}

	user, err := ac.auth.UpdateProfile(c.Request.Context(), userID, in)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
