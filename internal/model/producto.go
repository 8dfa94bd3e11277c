package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Producto is one catalog entry with its live stock and pricing.
// Margen is derived from (PrecioUnitario - PrecioCosto) / PrecioCosto * 100
// and is never set directly.
type Producto struct {
	ID             uint            `gorm:"primaryKey"`
	Nombre         string          `gorm:"index;not null"`
	Codigo         string          `gorm:"uniqueIndex;not null"`
	Descripcion    *string
	StockActual    int             `gorm:"not null;default:0;check:chk_productos_stock_actual,stock_actual >= 0"`
	StockBajo      int             `gorm:"not null;default:0"`
	PrecioCosto    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Margen         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PrecioUnitario decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Activo         bool            `gorm:"not null"`
	ImageURL       *string         `gorm:"column:image_url"`
	CategoriaID    *uint           `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StockBajoAlcanzado reports whether the product is at or below its alert threshold.
func (p *Producto) StockBajoAlcanzado() bool { return p.StockActual <= p.StockBajo }
