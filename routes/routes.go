package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/websitedesigna/tastygrill/controllers"
	"github.com/websitedesigna/tastygrill/middleware"
	"github.com/websitedesigna/tastygrill/models"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth      *controllers.AuthController
	Menu      *controllers.MenuController
	Cart      *controllers.CartController
	Checkout  *controllers.CheckoutController
	Orders    *controllers.OrderController
	Dashboard *controllers.DashboardController
	Health    *controllers.HealthController

	// Live serves the dashboard websocket.
	Live gin.HandlerFunc

	Authenticator middleware.Authenticator
	// AuthLimit throttles sign-up and sign-in; nil disables it.
	AuthLimit gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", h.Health.Health)

	authRoutes := r.Group("/auth")
	public := authRoutes.Group("")
	if h.AuthLimit != nil {
		public.Use(h.AuthLimit)
	}
	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)

	secured := authRoutes.Group("")
	secured.Use(middleware.AuthMiddleware(h.Authenticator))
	secured.POST("/logout", h.Auth.Logout)
	secured.GET("/me", h.Auth.Me)
	secured.PATCH("/me", h.Auth.UpdateProfile)

	r.GET("/menu", h.Menu.GetMenu)

	cartRoutes := r.Group("/cart")
	cartRoutes.GET("", h.Cart.GetCart)
	cartRoutes.DELETE("", h.Cart.ClearCart)
	cartRoutes.POST("/items", h.Cart.AddItem)
	cartRoutes.PATCH("/items/:id", h.Cart.UpdateQuantity)
	cartRoutes.DELETE("/items/:id", h.Cart.RemoveItem)

	// Anonymous checkout calls reach the handlers so they can answer with
	// the sign-in redirect.
	checkoutRoutes := r.Group("/checkout")
	checkoutRoutes.Use(middleware.OptionalAuth(h.Authenticator))
	checkoutRoutes.POST("/payment", h.Checkout.BeginPayment)
	checkoutRoutes.POST("/submit", h.Checkout.SubmitOrder)

	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.AuthMiddleware(h.Authenticator))
	orderRoutes.GET("", h.Orders.GetOrders)
	orderRoutes.GET("/:id", h.Orders.GetOrderByID)

	staff := middleware.RequireRole(models.RoleStaff, models.RoleAdmin)
	dashboardRoutes := r.Group("/dashboard")
	dashboardRoutes.GET("/live", middleware.WebSocketAuth(h.Authenticator), staff, h.Live)

	dashboardAPI := dashboardRoutes.Group("")
	dashboardAPI.Use(middleware.AuthMiddleware(h.Authenticator), staff)
	dashboardAPI.GET("/orders", h.Dashboard.ListOrders)
	dashboardAPI.PATCH("/orders/:id/status", h.Dashboard.UpdateStatus)
}
