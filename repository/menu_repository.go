package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/websitedesigna/tastygrill/models"
)

type MenuRepository interface {
	ListCategories(ctx context.Context) ([]models.MenuCategory, error)
	FindItemByID(ctx context.Context, id string) (*models.MenuItem, error)
}

type GormMenuRepository struct {
	db *gorm.DB
}

func NewGormMenuRepository(db *gorm.DB) *GormMenuRepository {
	return &GormMenuRepository{db: db}
}

// ListCategories returns categories in display order with their available
// items.
func (r *GormMenuRepository) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("available = ?", true).Order("name ASC")
		}).
		Order("display_order ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormMenuRepository) FindItemByID(ctx context.Context, id string) (*models.MenuItem, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}
