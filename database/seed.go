package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/websitedesigna/tastygrill/models"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// demoMenu is the starter catalog loaded into an empty database.
func demoMenu() []models.MenuCategory {
	return []models.MenuCategory{
		{
			Name: "Pizzas", Description: "Stone baked, 10\" and 12\"", DisplayOrder: 1,
			Items: []models.MenuItem{
				{Name: "Margherita", Description: "Tomato, mozzarella, basil", PriceSmall: price("7.00"), PriceMedium: price("9.00"), PriceLarge: price("11.00"), Available: true},
				{Name: "Pepperoni", Description: "Tomato, mozzarella, pepperoni", PriceSmall: price("8.00"), PriceMedium: price("10.00"), PriceLarge: price("12.50"), Available: true},
			},
		},
		{
			Name: "Burgers", Description: "Flame grilled", DisplayOrder: 2,
			Items: []models.MenuItem{
				{Name: "Classic Burger", Description: "Beef patty, cheese, pickles", PriceSmall: price("5.20"), PriceMedium: price("6.70"), PriceLarge: price("8.20"), Available: true},
				{Name: "Chicken Burger", Description: "Grilled chicken breast, mayo", PriceSmall: price("5.00"), PriceMedium: price("6.50"), PriceLarge: price("8.00"), Available: true},
			},
		},
		{
			Name: "Sides", DisplayOrder: 3,
			Items: []models.MenuItem{
				{Name: "Chips", Price: price("2.50"), Available: true},
				{Name: "Onion Rings", Price: price("3.00"), Available: true},
			},
		},
	}
}

// SeedMenu loads the demo catalog when no categories exist.
func SeedMenu(ctx context.Context, db *gorm.DB) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.MenuCategory{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	menu := demoMenu()
	if err := db.WithContext(ctx).Create(&menu).Error; err != nil {
		return false, fmt.Errorf("seed menu: %w", err)
	}
	return true, nil
}

// EnsureStaffUser creates the dashboard operator account if it is missing.
func EnsureStaffUser(ctx context.Context, db *gorm.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash staff password: %w", err)
	}
	staff := models.User{
		Email:         email,
		PasswordHash:  string(hash),
		FullName:      "Tasty Grill Staff",
		Role:          models.RoleStaff,
		EmailVerified: true,
	}
	if err := db.WithContext(ctx).Create(&staff).Error; err != nil {
		return false, fmt.Errorf("create staff user: %w", err)
	}
	return true, nil
}
