package migrations

import (
	"log"

	"order_manager/internal/models"
	"order_manager/internal/repository"
	"order_manager/internal/services"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RunMigrations recreates the schema from scratch and seeds default data.
// Only the init-db script calls this; the server migrates additively.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	log.Println("Dropping existing tables...")
	err := db.Migrator().DropTable(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		log.Printf("Warning: Error dropping tables: %v", err)
	}

	log.Println("Creating tables...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		return err
	}

	if err := createDefaultData(db); err != nil {
		log.Printf("Warning: Failed to create default data: %v", err)
	}

	log.Println("Database migrations completed successfully!")
	return nil
}

func createDefaultData(db *gorm.DB) error {
	userRepo := repository.NewUserRepository(db)
	userService := services.NewUserService(userRepo)

	existing, err := userService.GetUserByUsername("admin")
	if err != nil {
		return err
	}
	if existing == nil {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@localhost",
			Role:     string(models.Admin),
			IsActive: true,
		}
		if err := userService.CreateUser(admin, "admin123"); err != nil {
			return err
		}
		log.Println("Created default admin user")
	}

	customers := []models.Customer{
		{Name: "Acme Retail", Document: "12345678000190", Email: "purchasing@acme.example", Phone: "11999990001", Address: "100 Commerce St", IsActive: true},
		{Name: "Jane Doe", Document: "98765432100", Email: "jane@example.com", Phone: "11999990002", Address: "42 Elm St", IsActive: true},
	}
	for i := range customers {
		if err := db.Where("document = ?", customers[i].Document).
			FirstOrCreate(&customers[i]).Error; err != nil {
			return err
		}
	}

	products := []models.Product{
		{SKU: "KB-0001", Name: "Mechanical Keyboard", Price: decimal.NewFromFloat(149.90), StockQuantity: 50, IsActive: true},
		{SKU: "MS-0002", Name: "Wireless Mouse", Price: decimal.NewFromFloat(79.90), StockQuantity: 120, IsActive: true},
		{SKU: "MN-0003", Name: "27in Monitor", Price: decimal.NewFromFloat(1299.00), StockQuantity: 15, IsActive: true},
	}
	for i := range products {
		if err := db.Where("sku = ?", products[i].SKU).
			FirstOrCreate(&products[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Created default customers and products")
	return nil
}
