package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venta is the sale header. Totals are persisted unrounded; Descuento is the
// global percentage applied after the per-line discounts.
type Venta struct {
	ID                uint            `gorm:"primaryKey"`
	Fecha             time.Time       `gorm:"not null;index"`
	TotalSinDescuento decimal.Decimal `gorm:"type:numeric;not null"`
	Descuento         decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:numeric;not null"`
	ClienteID         *uint           `gorm:"index"`
	UsuarioID         uint            `gorm:"not null;index"`
	FormaPago         string          `gorm:"type:varchar(20);not null;default:'efectivo'"`
	Pagado            bool            `gorm:"not null;default:false"`

	Items []VentaItem `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
}

// TableName is needed because GORM takes "venta" for a plural.
func (Venta) TableName() string { return "ventas" }

// VentaItem is one sale line. PrecioUnitario, DescuentoIndividual and
// CostoUnitario are snapshots taken at sale time; ProductoID is deliberately
// not a foreign key so history survives product deletion.
type VentaItem struct {
	ID                  uint            `gorm:"primaryKey"`
	VentaID             uint            `gorm:"not null;index:idx_venta_items_venta_producto,priority:1"`
	ProductoID          uint            `gorm:"not null;index:idx_venta_items_venta_producto,priority:2"`
	Cantidad            int             `gorm:"not null"`
	PrecioUnitario      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DescuentoIndividual decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Subtotal            decimal.Decimal `gorm:"type:numeric;not null"`
	CostoUnitario       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}
