package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Devolucion reverses part of a Venta. When ReponerStock is set the returned
// quantities were added back to the products' stock, and any update or
// deletion must take them back out first.
type Devolucion struct {
	ID           uint      `gorm:"primaryKey"`
	VentaID      uint      `gorm:"not null;index"`
	Fecha        time.Time `gorm:"not null;index"`
	ReponerStock bool      `gorm:"not null;default:false"`
	Detalle      string

	Venta *Venta           `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
	Items []DevolucionItem `gorm:"foreignKey:DevolucionID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the Spanish plural (GORM would produce "devolucions").
func (Devolucion) TableName() string { return "devoluciones" }

// DevolucionItem copies price and discount from the matching sale line, not
// from the current product.
type DevolucionItem struct {
	ID                  uint            `gorm:"primaryKey"`
	DevolucionID        uint            `gorm:"not null;index"`
	ProductoID          uint            `gorm:"not null;index"`
	Cantidad            int             `gorm:"not null"`
	PrecioUnitario      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DescuentoIndividual decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Subtotal            decimal.Decimal `gorm:"type:numeric;not null"`
}
