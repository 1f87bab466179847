package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Product represents a product in the catalog. The fulfillment core treats
// products as read-only input: identity, price and category are maintained by
// the admin collaborator, never mutated here.
type Product struct {
	shared.BaseEntity
	Name       string          `gorm:"type:varchar(200);not null"`
	SKU        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Price      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CategoryID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// PriceMoney returns the selling price as a Money value object
func (p *Product) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Price)
}
