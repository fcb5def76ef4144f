package services

import (
	"errors"

	"order_manager/internal/models"
	"order_manager/internal/repository"
)

var ErrNegativeStock = errors.New("stock quantity cannot be negative")

type ProductService interface {
	CreateProduct(product *models.Product) error
	GetProductByID(id uint) (*models.Product, error)
	GetProductBySKU(sku string) (*models.Product, error)
	GetAllProducts() ([]models.Product, error)
	GetActiveProducts() ([]models.Product, error)
	UpdateProduct(product *models.Product) error
	// SetStock overwrites the provisioned stock level, used by the
	// replenishment endpoint. Order processing never calls this.
	SetStock(id uint, quantity int) error
	DeactivateProduct(id uint) error
	DeleteProduct(id uint) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) CreateProduct(product *models.Product) error {
	if product.Price.IsNegative() {
		return errors.New("product price cannot be negative")
	}
	if product.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return s.productRepo.Create(product)
}

func (s *productService) GetProductByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) GetProductBySKU(sku string) (*models.Product, error) {
	product, err := s.productRepo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) GetAllProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

func (s *productService) GetActiveProducts() ([]models.Product, error) {
	return s.productRepo.GetActive()
}

func (s *productService) UpdateProduct(product *models.Product) error {
	if product.Price.IsNegative() {
		return errors.New("product price cannot be negative")
	}
	return s.productRepo.Update(product)
}

func (s *productService) SetStock(id uint, quantity int) error {
	if quantity < 0 {
		return ErrNegativeStock
	}
	if _, err := s.GetProductByID(id); err != nil {
		return err
	}
	return s.productRepo.UpdateStock(id, quantity)
}

func (s *productService) DeactivateProduct(id uint) error {
	product, err := s.GetProductByID(id)
	if err != nil {
		return err
	}
	product.IsActive = false
	return s.productRepo.Update(product)
}

func (s *productService) DeleteProduct(id uint) error {
	return s.productRepo.Delete(id)
}
