package repository

import (
	"context"
	"errors"
	"strings"

	"smart_cycle_market/internal/product/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository definition get Product info
type ProductRepository interface {
	AutoMigrate() error
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) error
	RemoveImage(ctx context.Context, product *domain.Product, imageID uint) error
	Delete(ctx context.Context, id string) error
	ByCategory(ctx context.Context, category string, page domain.Page) ([]domain.Product, error)
	ByOwner(ctx context.Context, ownerID string, page domain.Page) ([]domain.Product, error)
	Latest(ctx context.Context, limit int) ([]domain.Product, error)
	SearchByName(ctx context.Context, name string, limit int) ([]domain.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository create ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (r *productRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{}, &domain.ProductImage{})
}

// Create insert the product with its images
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Preload("Images", orderedImages).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save update the product columns and insert images that have no id yet.
// The product row is locked while the stored images are counted, so concurrent
// saves can not push a product past MaxImages.
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked domain.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&locked, "id = ?", product.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return err
		}

		fresh := 0
		for _, img := range product.Images {
			if img.ID == 0 {
				fresh++
			}
		}
		var stored int64
		if err := tx.Model(&domain.ProductImage{}).Where("product_id = ?", product.ID).Count(&stored).Error; err != nil {
			return err
		}
		if int(stored)+fresh > domain.MaxImages {
			return domain.ErrTooManyImages
		}

		if err := tx.Omit("Images").Save(product).Error; err != nil {
			return err
		}
		for i := range product.Images {
			if product.Images[i].ID != 0 {
				continue
			}
			product.Images[i].ProductID = product.ID
			if err := tx.Create(&product.Images[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveImage delete imageID of product and store the product's current thumbnail
func (r *productRepository) RemoveImage(ctx context.Context, product *domain.Product, imageID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND product_id = ?", imageID, product.ID).Delete(&domain.ProductImage{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrImageNotFound
		}
		return tx.Model(product).Update("thumbnail", product.Thumbnail).Error
	})
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
}

func (r *productRepository) ByCategory(ctx context.Context, category string, page domain.Page) ([]domain.Product, error) {
	return r.list(ctx, r.db.Where("category = ?", category).Offset(page.Offset()).Limit(page.Limit))
}

func (r *productRepository) ByOwner(ctx context.Context, ownerID string, page domain.Page) ([]domain.Product, error) {
	return r.list(ctx, r.db.Where("owner_id = ?", ownerID).Offset(page.Offset()).Limit(page.Limit))
}

func (r *productRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.list(ctx, r.db.Limit(limit))
}

// SearchByName case insensitive substring match
func (r *productRepository) SearchByName(ctx context.Context, name string, limit int) ([]domain.Product, error) {
	like := "%" + likeEscaper.Replace(name) + "%"
	return r.list(ctx, r.db.Where("name ILIKE ?", like).Limit(limit))
}

// list newest first, id breaks ties so pages do not overlap
func (r *productRepository) list(ctx context.Context, q *gorm.DB) ([]domain.Product, error) {
	var products []domain.Product
	err := q.WithContext(ctx).Preload("Images", orderedImages).Order("created_at DESC").Order("id DESC").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
