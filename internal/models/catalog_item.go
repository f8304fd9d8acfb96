package models

import (
	"time"

	"leasing-backend/internal/catalog"

	"github.com/shopspring/decimal"
)

type CatalogItem struct {
	ID               uint            `gorm:"primaryKey"`
	Supplier         string          `gorm:"size:100;not null;uniqueIndex:idx_catalog_supplier_ref"`
	Reference        string          `gorm:"size:50;not null;uniqueIndex:idx_catalog_supplier_ref"`
	Description      string          `gorm:"size:255;not null"`
	Category         string          `gorm:"size:100;index"`
	UnitPriceExclTax decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c CatalogItem) ToDomain() catalog.Item {
	return catalog.Item{
		Supplier:         c.Supplier,
		Reference:        c.Reference,
		Description:      c.Description,
		Category:         c.Category,
		UnitPriceExclTax: c.UnitPriceExclTax,
	}
}
