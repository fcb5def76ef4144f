package services

import (
	"order_manager/internal/models"
	"order_manager/internal/repository"
)

type CustomerService interface {
	CreateCustomer(customer *models.Customer) error
	GetCustomerByID(id uint) (*models.Customer, error)
	GetCustomerByDocument(document string) (*models.Customer, error)
	GetAllCustomers() ([]models.Customer, error)
	UpdateCustomer(customer *models.Customer) error
	DeactivateCustomer(id uint) error
	DeleteCustomer(id uint) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) CreateCustomer(customer *models.Customer) error {
	return s.customerRepo.Create(customer)
}

func (s *customerService) GetCustomerByID(id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, models.ErrCustomerNotFound
	}
	return customer, nil
}

func (s *customerService) GetCustomerByDocument(document string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByDocument(document)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, models.ErrCustomerNotFound
	}
	return customer, nil
}

func (s *customerService) GetAllCustomers() ([]models.Customer, error) {
	return s.customerRepo.GetAll()
}

func (s *customerService) UpdateCustomer(customer *models.Customer) error {
	return s.customerRepo.Update(customer)
}

// DeactivateCustomer flips the activity flag; existing orders keep their
// reference, new orders are rejected at validation time.
func (s *customerService) DeactivateCustomer(id uint) error {
	customer, err := s.GetCustomerByID(id)
	if err != nil {
		return err
	}
	customer.IsActive = false
	return s.customerRepo.Update(customer)
}

func (s *customerService) DeleteCustomer(id uint) error {
	return s.customerRepo.Delete(id)
}
