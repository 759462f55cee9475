package routes

import (
	"aroi-backend/handlers"
	"aroi-backend/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Limiters holds the rate limiters used by route groups. Constructed
// once and injected so tests can build routers with their own policies.
type Limiters struct {
	Auth     *middleware.RateLimiter
	Standard *middleware.RateLimiter
	Strict   *middleware.RateLimiter
}

func DefaultLimiters() *Limiters {
	return &Limiters{
		Auth:     middleware.NewRateLimiter(middleware.AuthPolicy()),
		Standard: middleware.NewRateLimiter(middleware.StandardPolicy()),
		Strict:   middleware.NewRateLimiter(middleware.StrictPolicy()),
	}
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, limiters *Limiters) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	restaurantHandler := &handlers.RestaurantHandler{DB: db}
	menuHandler := &handlers.MenuHandler{DB: db}
	cartHandler := &handlers.CartHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	promotionHandler := &handlers.PromotionHandler{DB: db}
	loyaltyHandler := &handlers.LoyaltyHandler{DB: db}
	walletHandler := &handlers.WalletHandler{DB: db}

	api := r.Group("/api")
	api.Use(limiters.Standard.Middleware())

	// Auth routes carry the tightest rate limit since they are the main
	// brute-force target.
	auth := api.Group("/auth")
	auth.Use(limiters.Auth.Middleware())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshTokenHandler)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// Public routes
	{
		api.GET("/restaurants", restaurantHandler.ListRestaurants)
		api.GET("/restaurants/:slug", restaurantHandler.GetRestaurant)
		api.GET("/restaurants/:slug/menu", menuHandler.ListMenuBySlug)
		api.POST("/promotions/validate", promotionHandler.ValidatePromotion)
		api.GET("/loyalty/tiers", loyaltyHandler.GetTiers)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// User profile
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		// Cart routes
		protected.GET("/cart", cartHandler.GetCart)
		protected.POST("/cart", cartHandler.AddToCart)
		protected.PUT("/cart/:id", cartHandler.UpdateCartItem)
		protected.DELETE("/cart/:id", cartHandler.RemoveCartItem)
		protected.DELETE("/cart", cartHandler.ClearCart)

		// Order routes
		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)
		protected.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

		// Loyalty routes
		protected.GET("/loyalty/account", loyaltyHandler.GetAccount)
		protected.GET("/loyalty/history", loyaltyHandler.GetHistory)
		protected.POST("/loyalty/redeem", limiters.Strict.Middleware(), loyaltyHandler.RedeemPoints)

		// Wallet routes
		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/transactions", walletHandler.GetTransactions)
		protected.POST("/wallet/topup", limiters.Strict.Middleware(), walletHandler.TopUp)
	}

	// Driver routes
	driver := api.Group("/driver")
	driver.Use(middleware.AuthMiddleware())
	driver.Use(middleware.DriverMiddleware())
	{
		driver.GET("/orders", orderHandler.GetOrders)
		driver.GET("/orders/:id", orderHandler.GetOrder)
		driver.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
	}

	// Restaurant owner portal
	portal := api.Group("/portal")
	portal.Use(middleware.AuthMiddleware())
	portal.Use(middleware.RestaurantMiddleware())
	{
		portal.GET("/restaurant", restaurantHandler.GetMyRestaurant)
		portal.PUT("/restaurant/:id", restaurantHandler.UpdateRestaurant)
		portal.POST("/menu", menuHandler.CreateMenuItem)
		portal.PUT("/menu/:id", menuHandler.UpdateMenuItem)
		portal.DELETE("/menu/:id", menuHandler.DeleteMenuItem)
		portal.GET("/orders", orderHandler.GetOrders)
		portal.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/dashboard", orderHandler.GetAdminDashboard)

		// Restaurant management
		admin.POST("/restaurants", restaurantHandler.CreateRestaurant)
		admin.PUT("/restaurants/:id", restaurantHandler.UpdateRestaurant)
		admin.DELETE("/restaurants/:id", restaurantHandler.DeleteRestaurant)

		// Menu management
		admin.POST("/menu", menuHandler.CreateMenuItem)
		admin.PUT("/menu/:id", menuHandler.UpdateMenuItem)
		admin.DELETE("/menu/:id", menuHandler.DeleteMenuItem)

		// Promotion management
		admin.GET("/promotions", promotionHandler.ListPromotions)
		admin.GET("/promotions/:id", promotionHandler.GetPromotion)
		admin.POST("/promotions", promotionHandler.CreatePromotion)
		admin.PUT("/promotions/:id", promotionHandler.UpdatePromotion)
		admin.DELETE("/promotions/:id", promotionHandler.DeletePromotion)

		// User management
		admin.GET("/users", authHandler.ListUsers)
		admin.PUT("/users/:id", authHandler.UpdateUser)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
