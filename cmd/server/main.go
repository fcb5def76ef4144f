package main

import (
	"log"
	"time"

	"order_manager/internal/config"
	"order_manager/internal/database"
	"order_manager/internal/events"
	"order_manager/internal/handlers"
	"order_manager/internal/idempotency"
	"order_manager/internal/redis"
	"order_manager/internal/repository"
	"order_manager/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Initialize repositories and the transaction manager
	txManager := repository.NewTxManager(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Idempotency guard and post-commit event publisher
	guard := idempotency.NewRedisGuard(redisClient, time.Duration(cfg.IdempotencyTTLHours)*time.Hour)
	publisher := events.NewRedisPublisher(redisClient, cfg.EventChannel)

	// Initialize services
	orderService := services.NewOrderService(txManager, orderRepo, guard, publisher)
	statusService := services.NewOrderStatusService(txManager, publisher)
	customerService := services.NewCustomerService(customerRepo)
	productService := services.NewProductService(productRepo)
	userService := services.NewUserService(userRepo)

	// Initialize handlers
	apiHandler := handlers.NewAPIHandler(orderService, statusService, customerService, productService, userService)

	// Setup routes
	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.POST("/orders", apiHandler.CreateOrder)
		api.GET("/orders", apiHandler.ListOrders)
		api.GET("/orders/:id", apiHandler.GetOrder)
		api.GET("/orders/:id/history", apiHandler.GetOrderHistory)
		api.PATCH("/orders/:id/status", apiHandler.UpdateOrderStatus)
		api.DELETE("/orders/:id", apiHandler.CancelOrder)

		api.POST("/customers", apiHandler.CreateCustomer)
		api.GET("/customers", apiHandler.ListCustomers)
		api.GET("/customers/:id", apiHandler.GetCustomer)
		api.PUT("/customers/:id", apiHandler.UpdateCustomer)
		api.DELETE("/customers/:id", apiHandler.DeleteCustomer)

		api.POST("/products", apiHandler.CreateProduct)
		api.GET("/products", apiHandler.ListProducts)
		api.GET("/products/:id", apiHandler.GetProduct)
		api.PUT("/products/:id", apiHandler.UpdateProduct)
		api.PATCH("/products/:id/stock", apiHandler.UpdateProductStock)
		api.DELETE("/products/:id", apiHandler.DeleteProduct)

		api.POST("/users", apiHandler.CreateUser)
		api.GET("/users", apiHandler.ListUsers)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
