package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"order_manager/internal/models"
	"order_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	orderService    services.OrderService
	statusService   services.OrderStatusService
	customerService services.CustomerService
	productService  services.ProductService
	userService     services.UserService
}

func NewAPIHandler(
	orderService services.OrderService,
	statusService services.OrderStatusService,
	customerService services.CustomerService,
	productService services.ProductService,
	userService services.UserService,
) *APIHandler {
	return &APIHandler{
		orderService:    orderService,
		statusService:   statusService,
		customerService: customerService,
		productService:  productService,
		userService:     userService,
	}
}

// statusCode maps the domain error taxonomy to HTTP codes. Anything outside
// the taxonomy is an infrastructure fault and answers 500.
func statusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrCustomerNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrCustomerInactive),
		errors.Is(err, models.ErrProductInactive),
		errors.Is(err, models.ErrEmptyOrder),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, services.ErrNegativeStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// actingUser resolves the optional acting user from the X-User-ID header.
// Authentication itself is outside this service.
func actingUser(c *gin.Context) *uint {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	userID := uint(id)
	return &userID
}

// Order endpoints

func (h *APIHandler) CreateOrder(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	input.IdempotencyKey = c.GetHeader("Idempotency-Key")

	order, created, err := h.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	if !created {
		// Replay of a previously completed creation.
		c.JSON(http.StatusOK, order)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *APIHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.GetAllOrders()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *APIHandler) GetOrderHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	history, err := h.orderService.GetOrderHistory(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *APIHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Status      string `json:"status" binding:"required"`
		Observation string `json:"observation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The status field is required"})
		return
	}

	order, err := h.statusService.UpdateStatus(
		c.Request.Context(), id, models.OrderStatus(req.Status), actingUser(c), req.Observation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder handles DELETE on an order: orders are never removed, they
// are canceled through the same lifecycle as any other transition.
func (h *APIHandler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	_, err := h.statusService.Cancel(
		c.Request.Context(), id, actingUser(c), "Canceled via DELETE request")
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Customer endpoints

func (h *APIHandler) CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if err := h.customerService.CreateCustomer(&customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *APIHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomerByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *APIHandler) ListCustomers(c *gin.Context) {
	customers, err := h.customerService.GetAllCustomers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *APIHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomerByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	customer.ID = id
	if err := h.customerService.UpdateCustomer(customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *APIHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.customerService.DeleteCustomer(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Product endpoints

func (h *APIHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if err := h.productService.CreateProduct(&product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *APIHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetProductByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *APIHandler) ListProducts(c *gin.Context) {
	products, err := h.productService.GetAllProducts()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *APIHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetProductByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	product.ID = id
	if err := h.productService.UpdateProduct(product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *APIHandler) UpdateProductStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		StockQuantity *int `json:"stock_quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The stock_quantity field is required"})
		return
	}
	if err := h.productService.SetStock(id, *req.StockQuantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Stock updated", "stock_quantity": *req.StockQuantity})
}

func (h *APIHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// User endpoints

func (h *APIHandler) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: true,
	}
	if err := h.userService.CreateUser(user, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *APIHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
