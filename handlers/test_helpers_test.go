package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"aroi-backend/middleware"
	"aroi-backend/models"
	"aroi-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	// Limit to 1 open connection to prevent SQLite concurrent access issues
	// with in-memory databases.
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	// Create tables using raw SQLite-compatible SQL instead of AutoMigrate,
	// because the GORM model tags use PostgreSQL-specific defaults like gen_random_uuid().
	if err := createSQLiteTables(testDB); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	code := m.Run()
	os.Exit(code)
}

// freshDB returns a clean database for each test by deleting all rows.
func freshDB() *gorm.DB {
	// Delete in correct order to respect foreign keys
	testDB.Exec("DELETE FROM order_items")
	testDB.Exec("DELETE FROM orders")
	testDB.Exec("DELETE FROM cart_items")
	testDB.Exec("DELETE FROM menu_items")
	testDB.Exec("DELETE FROM restaurants")
	testDB.Exec("DELETE FROM promotions")
	testDB.Exec("DELETE FROM point_transactions")
	testDB.Exec("DELETE FROM loyalty_accounts")
	testDB.Exec("DELETE FROM wallet_transactions")
	testDB.Exec("DELETE FROM wallets")
	testDB.Exec("DELETE FROM password_reset_tokens")
	testDB.Exec("DELETE FROM refresh_tokens")
	testDB.Exec("DELETE FROM users")
	return testDB
}

// createSQLiteTables creates all tables with SQLite-compatible DDL.
func createSQLiteTables(db *gorm.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY,
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"name" TEXT,
			"role" TEXT DEFAULT 'customer',
			"restaurant_id" TEXT,
			"phone" TEXT,
			"is_blocked" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON "users"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_users_restaurant_id ON "users"("restaurant_id")`,

		`CREATE TABLE IF NOT EXISTS "restaurants" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"slug" TEXT NOT NULL UNIQUE,
			"owner_id" TEXT,
			"description" TEXT,
			"address" TEXT,
			"city" TEXT,
			"phone" TEXT,
			"latitude" REAL DEFAULT 0,
			"longitude" REAL DEFAULT 0,
			"delivery_radius" REAL DEFAULT 5,
			"delivery_fee" REAL DEFAULT 39,
			"free_delivery_min" REAL DEFAULT 500,
			"is_active" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_restaurants_deleted_at ON "restaurants"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "menu_items" (
			"id" TEXT PRIMARY KEY,
			"restaurant_id" TEXT NOT NULL,
			"name" TEXT NOT NULL,
			"description" TEXT,
			"category" TEXT,
			"price" REAL NOT NULL,
			"image_url" TEXT,
			"is_available" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_menu_items_restaurant FOREIGN KEY ("restaurant_id") REFERENCES "restaurants"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_deleted_at ON "menu_items"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant_id ON "menu_items"("restaurant_id")`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_category ON "menu_items"("category")`,

		`CREATE TABLE IF NOT EXISTS "cart_items" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"menu_item_id" TEXT NOT NULL,
			"restaurant_id" TEXT NOT NULL,
			"quantity" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_cart_items_user FOREIGN KEY ("user_id") REFERENCES "users"("id"),
			CONSTRAINT fk_cart_items_menu_item FOREIGN KEY ("menu_item_id") REFERENCES "menu_items"("id")
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_user_item ON "cart_items"("user_id","menu_item_id")`,
		`CREATE INDEX IF NOT EXISTS idx_cart_items_deleted_at ON "cart_items"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "orders" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"restaurant_id" TEXT NOT NULL,
			"driver_id" TEXT,
			"order_number" TEXT NOT NULL UNIQUE,
			"status" TEXT DEFAULT 'pending',
			"subtotal" REAL NOT NULL,
			"delivery_fee" REAL DEFAULT 0,
			"discount" REAL DEFAULT 0,
			"total" REAL NOT NULL,
			"promotion_id" TEXT,
			"promotion_code" TEXT,
			"delivery_address" TEXT,
			"payment_method" TEXT,
			"points_earned" INTEGER DEFAULT 0,
			"customer_lat" REAL,
			"customer_lng" REAL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_orders_user FOREIGN KEY ("user_id") REFERENCES "users"("id"),
			CONSTRAINT fk_orders_restaurant FOREIGN KEY ("restaurant_id") REFERENCES "restaurants"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_deleted_at ON "orders"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON "orders"("user_id")`,
		`CREATE INDEX IF NOT EXISTS idx_orders_restaurant_id ON "orders"("restaurant_id")`,
		`CREATE INDEX IF NOT EXISTS idx_orders_driver_id ON "orders"("driver_id")`,

		`CREATE TABLE IF NOT EXISTS "order_items" (
			"id" TEXT PRIMARY KEY,
			"order_id" TEXT NOT NULL,
			"menu_item_id" TEXT NOT NULL,
			"item_name" TEXT,
			"quantity" INTEGER NOT NULL,
			"price" REAL NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_order_items_order FOREIGN KEY ("order_id") REFERENCES "orders"("id"),
			CONSTRAINT fk_order_items_menu_item FOREIGN KEY ("menu_item_id") REFERENCES "menu_items"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON "order_items"("order_id")`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_menu_item_id ON "order_items"("menu_item_id")`,

		`CREATE TABLE IF NOT EXISTS "promotions" (
			"id" TEXT PRIMARY KEY,
			"code" TEXT NOT NULL UNIQUE,
			"name" TEXT NOT NULL,
			"description" TEXT,
			"type" TEXT NOT NULL,
			"discount_value" REAL NOT NULL,
			"minimum_order" REAL DEFAULT 0,
			"max_discount" REAL,
			"usage_limit" INTEGER,
			"usage_count" INTEGER DEFAULT 0,
			"start_date" DATETIME NOT NULL,
			"end_date" DATETIME NOT NULL,
			"is_active" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_promotions_deleted_at ON "promotions"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "loyalty_accounts" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL UNIQUE,
			"points" INTEGER DEFAULT 0,
			"total_earned" INTEGER DEFAULT 0,
			"total_spent" INTEGER DEFAULT 0,
			"tier" TEXT DEFAULT 'BRONZE',
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_loyalty_accounts_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loyalty_accounts_deleted_at ON "loyalty_accounts"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "point_transactions" (
			"id" TEXT PRIMARY KEY,
			"account_id" TEXT NOT NULL,
			"type" TEXT NOT NULL,
			"points" INTEGER NOT NULL,
			"balance_before" INTEGER NOT NULL,
			"balance_after" INTEGER NOT NULL,
			"description" TEXT,
			"order_id" TEXT,
			"created_at" DATETIME,
			CONSTRAINT fk_point_transactions_account FOREIGN KEY ("account_id") REFERENCES "loyalty_accounts"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_point_transactions_account_id ON "point_transactions"("account_id")`,

		`CREATE TABLE IF NOT EXISTS "wallets" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL UNIQUE,
			"balance" REAL DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_wallets_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallets_deleted_at ON "wallets"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "wallet_transactions" (
			"id" TEXT PRIMARY KEY,
			"wallet_id" TEXT NOT NULL,
			"type" TEXT NOT NULL,
			"amount" REAL NOT NULL,
			"balance_before" REAL NOT NULL,
			"balance_after" REAL NOT NULL,
			"description" TEXT,
			"order_id" TEXT,
			"gateway_txn_id" TEXT,
			"gateway_provider" TEXT,
			"created_at" DATETIME,
			CONSTRAINT fk_wallet_transactions_wallet FOREIGN KEY ("wallet_id") REFERENCES "wallets"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet_id ON "wallet_transactions"("wallet_id")`,

		`CREATE TABLE IF NOT EXISTS "refresh_tokens" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"token" TEXT NOT NULL UNIQUE,
			"expires_at" DATETIME NOT NULL,
			"revoked_at" DATETIME,
			"created_at" DATETIME,
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON "refresh_tokens"("user_id")`,

		`CREATE TABLE IF NOT EXISTS "password_reset_tokens" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"token" TEXT NOT NULL UNIQUE,
			"expires_at" DATETIME NOT NULL,
			"used_at" DATETIME,
			"created_at" DATETIME,
			CONSTRAINT fk_password_reset_tokens_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_user_id ON "password_reset_tokens"("user_id")`,
	}

	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}
	return nil
}

// ==================== Seed Helpers ====================

// seedTestUser creates a user with the given role and returns it along with a valid JWT token.
func seedTestUser(db *gorm.DB, email, role string, restaurantID *uuid.UUID) (models.User, string) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Password:     string(hashed),
		Name:         "Test User",
		Role:         role,
		RestaurantID: restaurantID,
	}
	db.Create(&user)

	token, _ := utils.GenerateToken(user.ID, user.Email, user.Role, restaurantID)
	return user, token
}

// seedRestaurant creates a test restaurant in central Bangkok.
func seedRestaurant(db *gorm.DB, name string) models.Restaurant {
	restaurant := models.Restaurant{
		ID:              uuid.New(),
		Name:            name,
		Slug:            "test-restaurant-" + uuid.New().String()[:8],
		City:            "Bangkok",
		Latitude:        13.7563,
		Longitude:       100.5018,
		DeliveryRadius:  5.0,
		DeliveryFee:     39.0,
		FreeDeliveryMin: 500.0,
		IsActive:        true,
	}
	db.Create(&restaurant)
	return restaurant
}

// seedMenuItem creates a test menu item.
func seedMenuItem(db *gorm.DB, restaurantID uuid.UUID, name string, price float64) models.MenuItem {
	item := models.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         name,
		Category:     "Mains",
		Price:        price,
		IsAvailable:  true,
	}
	db.Create(&item)
	return item
}

// seedPromotion creates an active promotion valid for the next 24 hours.
func seedPromotion(db *gorm.DB, code string, promoType models.PromotionType, value float64) models.Promotion {
	promo := models.Promotion{
		ID:            uuid.New(),
		Code:          code,
		Name:          "Test Promotion " + code,
		Type:          promoType,
		DiscountValue: value,
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}
	db.Create(&promo)
	return promo
}

// seedCart puts quantity of the menu item in the user's cart.
func seedCart(db *gorm.DB, userID uuid.UUID, item models.MenuItem, quantity int) models.CartItem {
	cartItem := models.CartItem{
		ID:           uuid.New(),
		UserID:       userID,
		MenuItemID:   item.ID,
		RestaurantID: item.RestaurantID,
		Quantity:     quantity,
	}
	db.Create(&cartItem)
	return cartItem
}

// seedWallet creates a wallet with the given balance.
func seedWallet(db *gorm.DB, userID uuid.UUID, balance float64) models.Wallet {
	wallet := models.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: balance,
	}
	db.Create(&wallet)
	db.Model(&wallet).Update("balance", balance)
	return wallet
}

// seedLoyaltyAccount creates a loyalty account with the given balances.
func seedLoyaltyAccount(db *gorm.DB, userID uuid.UUID, points, totalEarned int) models.LoyaltyAccount {
	account := models.LoyaltyAccount{
		ID:          uuid.New(),
		UserID:      userID,
		Points:      points,
		TotalEarned: totalEarned,
		Tier:        models.TierForTotalEarned(totalEarned),
	}
	db.Create(&account)
	return account
}

// seedOrder creates an Order with one OrderItem.
func seedOrder(db *gorm.DB, userID, restaurantID uuid.UUID, item models.MenuItem, status models.OrderStatus) models.Order {
	orderID := uuid.New()
	order := models.Order{
		ID:           orderID,
		UserID:       userID,
		RestaurantID: restaurantID,
		OrderNumber:  "ORD" + time.Now().Format("20060102150405") + orderID.String()[:8],
		Status:       status,
		Subtotal:     item.Price,
		DeliveryFee:  39.0,
		Total:        item.Price + 39.0,
		Items: []models.OrderItem{
			{
				ID:         uuid.New(),
				OrderID:    orderID,
				MenuItemID: item.ID,
				ItemName:   item.Name,
				Quantity:   1,
				Price:      item.Price,
			},
		},
	}
	db.Create(&order)
	return order
}

// ==================== Router Setup Helpers ====================

// setupAuthRouter sets up routes for auth handler tests.
func setupAuthRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	authHandler := &AuthHandler{DB: db}

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.RefreshTokenHandler)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/auth/profile", authHandler.GetProfile)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)
	protected.PUT("/auth/password", authHandler.ChangePassword)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/users", authHandler.ListUsers)
	admin.PUT("/users/:id", authHandler.UpdateUser)

	return r
}

// setupRestaurantRouter sets up routes for restaurant and menu handler tests.
func setupRestaurantRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	restaurantHandler := &RestaurantHandler{DB: db}
	menuHandler := &MenuHandler{DB: db}

	api := r.Group("/api")
	api.GET("/restaurants", restaurantHandler.ListRestaurants)
	api.GET("/restaurants/:slug", restaurantHandler.GetRestaurant)
	api.GET("/restaurants/:slug/menu", menuHandler.ListMenuBySlug)

	portal := api.Group("/portal")
	portal.Use(middleware.AuthMiddleware())
	portal.Use(middleware.RestaurantMiddleware())
	portal.GET("/restaurant", restaurantHandler.GetMyRestaurant)
	portal.PUT("/restaurant/:id", restaurantHandler.UpdateRestaurant)
	portal.POST("/menu", menuHandler.CreateMenuItem)
	portal.PUT("/menu/:id", menuHandler.UpdateMenuItem)
	portal.DELETE("/menu/:id", menuHandler.DeleteMenuItem)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/restaurants", restaurantHandler.CreateRestaurant)
	admin.PUT("/restaurants/:id", restaurantHandler.UpdateRestaurant)
	admin.DELETE("/restaurants/:id", restaurantHandler.DeleteRestaurant)

	return r
}

// setupCartRouter sets up routes for cart handler tests.
func setupCartRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	cartHandler := &CartHandler{DB: db}

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/cart", cartHandler.GetCart)
	protected.POST("/cart", cartHandler.AddToCart)
	protected.PUT("/cart/:id", cartHandler.UpdateCartItem)
	protected.DELETE("/cart/:id", cartHandler.RemoveCartItem)
	protected.DELETE("/cart", cartHandler.ClearCart)

	return r
}

// setupOrderRouter sets up routes for order handler tests.
func setupOrderRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	orderHandler := &OrderHandler{DB: db}

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.POST("/orders", orderHandler.CreateOrder)
	protected.GET("/orders", orderHandler.GetOrders)
	protected.GET("/orders/:id", orderHandler.GetOrder)
	protected.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/dashboard", orderHandler.GetAdminDashboard)

	return r
}

// setupPromotionRouter sets up routes for promotion handler tests.
func setupPromotionRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	promotionHandler := &PromotionHandler{DB: db}

	api := r.Group("/api")
	api.POST("/promotions/validate", promotionHandler.ValidatePromotion)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/promotions", promotionHandler.ListPromotions)
	admin.GET("/promotions/:id", promotionHandler.GetPromotion)
	admin.POST("/promotions", promotionHandler.CreatePromotion)
	admin.PUT("/promotions/:id", promotionHandler.UpdatePromotion)
	admin.DELETE("/promotions/:id", promotionHandler.DeletePromotion)

	return r
}

// setupLoyaltyRouter sets up routes for loyalty handler tests.
func setupLoyaltyRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	loyaltyHandler := &LoyaltyHandler{DB: db}

	api := r.Group("/api")
	api.GET("/loyalty/tiers", loyaltyHandler.GetTiers)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/loyalty/account", loyaltyHandler.GetAccount)
	protected.GET("/loyalty/history", loyaltyHandler.GetHistory)
	protected.POST("/loyalty/redeem", loyaltyHandler.RedeemPoints)

	return r
}

// setupWalletRouter sets up routes for wallet handler tests.
func setupWalletRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	walletHandler := &WalletHandler{DB: db}

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/wallet", walletHandler.GetWallet)
	protected.GET("/wallet/transactions", walletHandler.GetTransactions)
	protected.POST("/wallet/topup", walletHandler.TopUp)

	return r
}

// ==================== Request Helpers ====================

// jsonRequest creates an HTTP request with JSON body.
func jsonRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authRequest creates an HTTP request with JSON body and Authorization header.
func authRequest(method, url string, body interface{}, token string) *http.Request {
	req := jsonRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ==================== Response Helpers ====================

// parseResponse reads the response body into a map.
func parseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}
