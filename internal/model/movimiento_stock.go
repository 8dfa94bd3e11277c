package model

import (
	"time"
)

// Tipos de MovimientoStock.
const (
	MovVenta               = "venta"
	MovDevolucion          = "devolucion"
	MovReversionDevolucion = "reversion_devolucion"
	MovAjusteManual        = "ajuste_manual"
)

// MovimientoStock registra cada cambio de stock en un producto.
// Se crea dentro de la misma transaccion que el cambio.
type MovimientoStock struct {
	ID            uint   `gorm:"primaryKey"`
	ProductoID    uint   `gorm:"not null;index"`
	Tipo          string `gorm:"type:varchar(30);not null"`
	Cantidad      int    `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int    `gorm:"not null"`
	StockNuevo    int    `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uint // venta_id or devolucion_id if applicable
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
