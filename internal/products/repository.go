package product

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Variants", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("id ASC") }).
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order ASC") })
}

// FindByID loads the product with its category, variants, and images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withRelations(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products with relations; missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	if err := withRelations(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindActiveBySlug loads an active product for the storefront.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := withRelations(r.db.WithContext(ctx)).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CategoryExists reports whether the category id is known.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateProduct inserts a new product row without associations.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Category", "Variants", "Images").Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct overwrites the scalar product columns.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"title":        product.Title,
			"slug":         product.Slug,
			"description":  product.Description,
			"base_price":   product.BasePrice,
			"category_id":  product.CategoryID,
			"has_variants": product.HasVariants,
			"is_active":    product.IsActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceVariants makes the product's variants equal to the provided set.
// Rows whose ID matches an existing variant are updated in place so carts and
// order items keep pointing at them.
func (r *Repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error {
	tx := r.db.WithContext(ctx)

	var existing []uuid.UUID
	if err := tx.Model(&models.ProductVariant{}).Where("product_id = ?", productID).Pluck("id", &existing).Error; err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	keep := make([]uuid.UUID, 0, len(variants))
	for i := range variants {
		v := &variants[i]
		v.ProductID = productID
		if v.ID != uuid.Nil && known[v.ID] {
			if err := tx.Model(&models.ProductVariant{}).
				Where("id = ?", v.ID).
				Updates(map[string]any{
					"variant_name":   v.VariantName,
					"sku":            v.SKU,
					"price":          v.Price,
					"stock_quantity": v.StockQuantity,
				}).Error; err != nil {
				return err
			}
			keep = append(keep, v.ID)
			continue
		}
		v.ID = uuid.Nil
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		keep = append(keep, v.ID)
	}

	stale := tx.Where("product_id = ?", productID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	return stale.Delete(&models.ProductVariant{}).Error
}

// ReplaceImages rewrites the gallery; order follows the slice index.
func (r *Repository) ReplaceImages(ctx context.Context, productID uuid.UUID, urls []string) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}
	images := make([]models.ProductImage, 0, len(urls))
	for i, url := range urls {
		images = append(images, models.ProductImage{ProductID: productID, ImageURL: url, SortOrder: i})
	}
	return tx.Create(&images).Error
}

// DeleteProduct removes the product and its dependents. Order items keep
// their snapshot but lose the product reference.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Updates(map[string]any{"product_id": nil, "variant_id": nil}).Error; err != nil {
		return err
	}
	for _, child := range []any{&models.ProductVariant{}, &models.ProductImage{}, &models.Review{}, &models.WishlistItem{}} {
		if err := tx.Where("product_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	res := tx.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdminList pages through every product, newest first.
func (r *Repository) AdminList(ctx context.Context, input AdminListInput) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(input.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(slug) LIKE ?)", like, like)
	}
	if input.CategoryID != nil {
		query = query.Where("category_id = ?", *input.CategoryID)
	}
	if input.Active != nil {
		query = query.Where("is_active = ?", *input.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := withRelations(query).
		Order("created_at DESC").
		Order("id DESC").
		Limit(input.Page.Limit).
		Offset(input.Page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListActive returns one storefront page and the cursor of the next one.
func (r *Repository) ListActive(ctx context.Context, input StorefrontListInput) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.is_active = ?", true)
	if slug := strings.TrimSpace(input.CategorySlug); slug != "" {
		query = query.Where("products.category_id IN (?)",
			r.db.WithContext(ctx).Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if term := strings.TrimSpace(input.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(products.title) LIKE ? OR LOWER(COALESCE(products.description, '')) LIKE ?)", like, like)
	}

	switch input.Sort {
	case enums.ProductSortPriceAsc, enums.ProductSortPriceDesc:
		return r.listByPrice(query, input, limit)
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(products.created_at < ? OR (products.created_at = ? AND products.id < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := withRelations(query).
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	return rows, next, nil
}

func (r *Repository) listByPrice(query *gorm.DB, input StorefrontListInput, limit int) ([]models.Product, string, error) {
	offset, err := pagination.ParseOffsetCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	direction := "ASC"
	if input.Sort == enums.ProductSortPriceDesc {
		direction = "DESC"
	}

	var rows []models.Product
	if err := withRelations(query).
		Order("products.base_price " + direction).
		Order("products.id ASC").
		Limit(limit + 1).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		next = pagination.EncodeOffsetCursor(offset + limit)
		rows = rows[:limit]
	}
	return rows, next, nil
}

// ReviewSummaryBySlug aggregates the approved reviews of a product.
func (r *Repository) ReviewSummaryBySlug(ctx context.Context, slug string) (ReviewSummary, error) {
	var row struct {
		Average sql.NullFloat64
		Count   int64
	}
	if err := r.db.WithContext(ctx).
		Table("reviews").
		Select("AVG(reviews.rating) AS average, COUNT(reviews.id) AS count").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("products.slug = ? AND products.is_active = ? AND reviews.is_approved = ?", slug, true, true).
		Scan(&row).Error; err != nil {
		return ReviewSummary{}, err
	}
	summary := ReviewSummary{Count: row.Count}
	if row.Average.Valid {
		summary.Average = math.Round(row.Average.Float64*100) / 100
	}
	return summary, nil
}
