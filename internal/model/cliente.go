package model

import "time"

// Cliente is the optional buyer of a Venta. Documento is unique when present.
type Cliente struct {
	ID        uint    `gorm:"primaryKey"`
	Nombre    string  `gorm:"size:100;not null;index"`
	Documento *string `gorm:"size:30;uniqueIndex"`
	Direccion *string `gorm:"size:255"`
	Telefono  *string `gorm:"size:30"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }
