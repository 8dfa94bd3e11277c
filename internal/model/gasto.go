package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gasto is a store expense registered by a user. It does not touch stock.
type Gasto struct {
	ID          uint            `gorm:"primaryKey"`
	Fecha       time.Time       `gorm:"not null;index"`
	Monto       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Descripcion *string         `gorm:"size:255"`
	UsuarioID   uint            `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Gasto) TableName() string { return "gastos" }
