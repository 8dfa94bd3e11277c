package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistorialPrecio registra cada cambio de costo o precio de un producto.
// Los registros son inmutables: nunca se modifican.
type HistorialPrecio struct {
	ID            uint            `gorm:"primaryKey"`
	ProductoID    uint            `gorm:"not null;index"`
	CostoAntes    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CostoDespues  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PrecioAntes   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PrecioDespues decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MargenDespues decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Motivo        string          `gorm:"not null;default:'manual'"`
	CreatedAt     time.Time
}

// Motivos de HistorialPrecio.
const (
	MotivoPrecioAlta   = "alta"   // precios iniciales del producto
	MotivoPrecioManual = "manual" // cambio por PATCH
)
