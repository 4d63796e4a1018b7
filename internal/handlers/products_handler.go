package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/pricing"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/repository"
	"github.com/boulouzanacer/SafeBoutique-sub000/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProductCatalog is the product persistence used by the admin and
// storefront endpoints.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id uint) (*models.Product, error)
	GetProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error)
	GetFamilies(ctx context.Context) ([]string, error)
	FindByRef(ctx context.Context, ref string) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

// PageLimits bounds the page size accepted by list endpoints.
type PageLimits struct {
	Default int
	Max     int
}

type ProductsHandler struct {
	repo      ProductCatalog
	validator *services.ProductValidator
	limits    PageLimits
	logger    *logrus.Entry
	now       func() time.Time
}

func NewProductsHandler(repo ProductCatalog, limits PageLimits, logger *logrus.Logger) *ProductsHandler {
	if limits.Default < 1 {
		limits.Default = 20
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &ProductsHandler{
		repo:      repo,
		validator: services.NewProductValidator(),
		limits:    limits,
		logger:    logger.WithField("component", "products-handler"),
		now:       time.Now,
	}
}

// StorefrontProduct is the public view of a product: no cost prices, and
// the price a customer pays right now.
type StorefrontProduct struct {
	RecordID    uint          `json:"recordid"`
	CodeBarre   string        `json:"codeBarre"`
	RefProduit  string        `json:"refProduit"`
	Produit     string        `json:"produit"`
	Famille     string        `json:"famille"`
	SousFamille string        `json:"sousFamille"`
	Description string        `json:"description"`
	InStock     bool          `json:"inStock"`
	Tva         float64       `json:"tva"`
	Price       pricing.Price `json:"price"`
}

func toStorefront(p *models.Product, now time.Time) StorefrontProduct {
	return StorefrontProduct{
		RecordID:    p.RecordID,
		CodeBarre:   p.CodeBarre,
		RefProduit:  p.RefProduit,
		Produit:     p.Produit,
		Famille:     p.Famille,
		SousFamille: p.SousFamille,
		Description: p.Description,
		InStock:     p.Stock > 0,
		Tva:         p.Tva,
		Price:       pricing.Derive(p, now),
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "boutique-catalog",
		"time":    time.Now().UTC(),
	})
}

// GetProducts lists products for the back office
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	products, pagination, ok := h.listProducts(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       products,
		"pagination": pagination,
	})
}

// GetStorefrontProducts lists products with their current price
func (h *ProductsHandler) GetStorefrontProducts(c *gin.Context) {
	products, pagination, ok := h.listProducts(c)
	if !ok {
		return
	}

	now := h.now()
	data := make([]StorefrontProduct, 0, len(products))
	for i := range products {
		data = append(data, toStorefront(&products[i], now))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": pagination,
	})
}

func (h *ProductsHandler) listProducts(c *gin.Context) ([]models.Product, *models.PaginationInfo, bool) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.limits.Default)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > h.limits.Max {
		limit = h.limits.Default
	}

	req := &models.ListProductsRequest{
		Famille: c.Query("famille"),
		Search:  c.Query("search"),
		Page:    page,
		Limit:   limit,
	}

	products, total, err := h.repo.GetProducts(c.Request.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
			},
		})
		return nil, nil, false
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return products, &models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, true
}

// GetProduct retrieves a single product by surrogate id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	product, ok := h.loadProduct(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    product,
	})
}

// GetStorefrontProduct retrieves the public view of a product
func (h *ProductsHandler) GetStorefrontProduct(c *gin.Context) {
	product, ok := h.loadProduct(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    toStorefront(product, h.now()),
	})
}

// GetFamilies lists the product families used by the catalog
func (h *ProductsHandler) GetFamilies(c *gin.Context) {
	families, err := h.repo.GetFamilies(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list families")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve families",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    families,
	})
}

// UpdateProduct applies a partial update from the back office
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	product, ok := h.loadProduct(c)
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	req.Apply(product)

	if err := h.validator.ValidateProduct(product); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	// The reference code is the import key; two products may not share it.
	if req.RefProduit != nil {
		existing, err := h.repo.FindByRef(c.Request.Context(), product.RefProduit)
		if err == nil && existing.RecordID != product.RecordID {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DUPLICATE_REFERENCE",
					Message: "Réf produit déjà utilisée par un autre produit",
					Field:   "refProduit",
				},
			})
			return
		}
	}

	if err := h.repo.UpdateProduct(c.Request.Context(), product); err != nil {
		h.writeRepoError(c, err, "UPDATE_FAILED", "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    product,
	})
}

// DeleteProduct removes a product
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeRepoError(c, err, "DELETE_FAILED", "Failed to delete product")
		return
	}

	message := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}

func (h *ProductsHandler) loadProduct(c *gin.Context) (*models.Product, bool) {
	id, ok := parseRecordID(c)
	if !ok {
		return nil, false
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.writeRepoError(c, err, "FETCH_FAILED", "Failed to retrieve product")
		return nil, false
	}
	return product, true
}

func (h *ProductsHandler) writeRepoError(c *gin.Context, err error, code, message string) {
	if errors.Is(err, repository.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}

	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

func parseRecordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return 0, false
	}
	return uint(id), true
}
