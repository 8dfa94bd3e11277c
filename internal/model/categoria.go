package model

import "time"

// Categoria groups products. Categories are deactivated, never deleted, so
// products keep a valid reference.
type Categoria struct {
	ID          uint   `gorm:"primaryKey"`
	Nombre      string `gorm:"size:100;uniqueIndex;not null"`
	Descripcion *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Categoria) TableName() string { return "categorias" }
