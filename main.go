package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	store := checkout.NewMongoStore(db)
	checkoutSvc := checkout.NewService(store, store, store, checkout.Pricing{
		TaxRate:           config.AppEnv.TaxRate,
		FreeShippingAbove: config.AppEnv.FreeShippingAbove,
		ShippingFee:       config.AppEnv.ShippingFee,
	})
	orderFeed := handlers.NewOrderFeed()
	handlers.SetStripeKey(config.AppEnv.StripeSecretKey)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	jwtSecret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL

	r.POST("/api/auth/register", handlers.Register(db, jwtSecret, accessTTL))
	r.POST("/api/auth/login", handlers.Login(db, jwtSecret, accessTTL))
	r.GET("/api/auth/profile", middleware.RequireUser(jwtSecret), handlers.GetProfile(db))
	r.PUT("/api/auth/profile", middleware.RequireUser(jwtSecret), handlers.UpdateProfile(db, jwtSecret, accessTTL))

	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/categories", handlers.GetCategories(db))
	r.GET("/api/products/:id", handlers.GetProduct(db))
	r.POST("/api/products/:id/reviews", middleware.RequireUser(jwtSecret), handlers.CreateReview(db))

	r.GET("/api/payment/config", handlers.GetPaymentConfig(config.AppEnv.StripePublishableKey))
	r.POST("/api/payment/create-payment-intent",
		middleware.RequireUser(jwtSecret),
		handlers.CreatePaymentIntent(),
	)

	orders := r.Group("/api/orders")
	orders.Use(middleware.RequireUser(jwtSecret))
	{
		orders.POST("", handlers.CreateOrder(db, checkoutSvc, orderFeed))
		orders.GET("/mine", handlers.GetMyOrders(db))
		orders.GET("/:id", handlers.GetOrder(db))
		orders.PUT("/:id/pay", handlers.PayOrder(db, orderFeed))
	}

	user := r.Group("/api/users/me")
	user.Use(middleware.RequireUser(jwtSecret))
	{
		user.PUT("/cart", handlers.SyncCart(db))
		user.POST("/wishlist/:productId", handlers.AddToWishlist(db))
		user.DELETE("/wishlist/:productId", handlers.RemoveFromWishlist(db))
	}

	admin := r.Group("/api")
	admin.Use(middleware.RequireAdmin(jwtSecret))
	{
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))
		admin.GET("/products/export", handlers.ExportProducts(db))

		admin.GET("/orders", handlers.GetOrders(db))
		admin.PUT("/orders/:id/deliver", handlers.DeliverOrder(db, orderFeed))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(db, orderFeed))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
		admin.GET("/orders/feed", orderFeed.Handler())

		admin.GET("/users", handlers.GetUsers(db))
		admin.PUT("/users/:id", handlers.UpdateUser(db))
		admin.DELETE("/users/:id", handlers.DeleteUser(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
