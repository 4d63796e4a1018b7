package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute
	ProductListCacheTTL = 2 * time.Minute
	FamilyCacheTTL      = 30 * time.Minute
)

// listGenerationKey is bumped on every write so that cached listings built
// from an older generation are never read again.
const listGenerationKey = "boutique:products:list:gen"

// ErrProductNotFound is returned when no product matches the lookup.
var ErrProductNotFound = errors.New("product not found")

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewProductsRepository builds the repository. redis may be nil, in which
// case reads always hit the database.
func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redis,
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(prefix string, generation int64, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("boutique:%s:%d:%s", prefix, generation, hex.EncodeToString(hash[:]))
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("boutique:product:%d", id)
}

func (r *ProductsRepository) listGeneration(ctx context.Context) int64 {
	if r.redis == nil {
		return 0
	}
	gen, err := r.redis.Get(ctx, listGenerationKey).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// invalidateProductCaches drops the cached product and retires every cached listing
func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, id uint) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, productCacheKey(id))
	r.redis.Incr(ctx, listGenerationKey)
}

func (r *ProductsRepository) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.redis == nil {
		return false
	}
	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (r *ProductsRepository) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err == nil {
		r.redis.Set(ctx, key, data, ttl)
	}
}

// FindByRef returns the product whose reference code equals ref.
func (r *ProductsRepository) FindByRef(ctx context.Context, ref string) (*models.Product, error) {
	return r.findOne(ctx, "ref_produit = ?", ref)
}

// FindByBarcode returns the product whose barcode equals barcode.
func (r *ProductsRepository) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return r.findOne(ctx, "code_barre = ?", barcode)
}

func (r *ProductsRepository) findOne(ctx context.Context, cond string, value string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where(cond, value).Order("recordid ASC").First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a product; a new surrogate id is assigned by the database
func (r *ProductsRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.RecordID = 0
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		r.invalidateProductCaches(ctx, product.RecordID)
	}
	return err
}

// UpdateProduct overwrites every column of the stored product identified by
// product.RecordID, keeping its creation time.
func (r *ProductsRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	if product.RecordID == 0 {
		return fmt.Errorf("update without recordid")
	}
	product.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("recordid = ?", product.RecordID).
		Select("*").Omit("recordid", "created_at").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(ctx, product.RecordID)
	return nil
}

// GetProductByID retrieves a product by surrogate id with caching
func (r *ProductsRepository) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	cacheKey := productCacheKey(id)

	var cached models.Product
	if r.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var product models.Product
	err := r.db.WithContext(ctx).Where("recordid = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, product, ProductCacheTTL)
	return &product, nil
}

// DeleteProduct removes a product
func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("recordid = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(ctx, id)
	return nil
}

// ListAllProducts returns every stored product in surrogate id order, uncached
func (r *ProductsRepository) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("recordid ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

type productPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// GetProducts retrieves products with filters and pagination
func (r *ProductsRepository) GetProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	cacheKey := generateListCacheKey("products:list", r.listGeneration(ctx), req)

	var page productPage
	if r.cacheGet(ctx, cacheKey, &page) {
		return page.Products, page.Total, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	query = applyProductFilters(query, req)

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("produit ASC").Offset(offset).Limit(req.Limit).Find(&page.Products).Error; err != nil {
		return nil, 0, err
	}

	r.cacheSet(ctx, cacheKey, page, ProductListCacheTTL)
	return page.Products, page.Total, nil
}

// GetFamilies returns the distinct non-empty families, sorted
func (r *ProductsRepository) GetFamilies(ctx context.Context) ([]string, error) {
	cacheKey := generateListCacheKey("families", r.listGeneration(ctx), nil)

	var families []string
	if r.cacheGet(ctx, cacheKey, &families) {
		return families, nil
	}

	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("famille <> ''").
		Distinct().Order("famille ASC").
		Pluck("famille", &families).Error
	if err != nil {
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, families, FamilyCacheTTL)
	return families, nil
}

func applyProductFilters(query *gorm.DB, req *models.ListProductsRequest) *gorm.DB {
	if req.Famille != "" {
		query = query.Where("famille = ?", req.Famille)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(produit) LIKE ? OR LOWER(ref_produit) LIKE ? OR code_barre = ?", like, like, search)
	}
	return query
}
