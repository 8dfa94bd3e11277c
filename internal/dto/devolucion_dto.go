package dto

import "github.com/shopspring/decimal"

type ItemDevolucionRequest struct {
	ProductoID uint `json:"producto_id" validate:"required"`
	Cantidad   int  `json:"cantidad"    validate:"required,min=1"`
}

// DevolucionRequest is used for both create and update. On update VentaID may
// be omitted; when present it must match the original sale.
type DevolucionRequest struct {
	VentaID      uint                    `json:"venta_id"`
	Items        []ItemDevolucionRequest `json:"items"         validate:"required,min=1,dive"`
	ReponerStock bool                    `json:"reponer_stock"`
	Detalle      string                  `json:"detalle"       validate:"max=500"`
}

type ItemDevolucionResponse struct {
	ID                  uint            `json:"id"`
	ProductoID          uint            `json:"producto_id"`
	Cantidad            int             `json:"cantidad"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario"`
	DescuentoIndividual decimal.Decimal `json:"descuento_individual"`
	Subtotal            decimal.Decimal `json:"subtotal"`
}

type DevolucionResponse struct {
	ID           uint                     `json:"id"`
	VentaID      uint                     `json:"venta_id"`
	Fecha        string                   `json:"fecha"`
	ReponerStock bool                     `json:"reponer_stock"`
	Detalle      string                   `json:"detalle"`
	Total        decimal.Decimal          `json:"total"`
	Items        []ItemDevolucionResponse `json:"items"`
}

type DevolucionFilter struct {
	VentaID uint `form:"venta_id"`
	Page    int  `form:"page,default=1"   validate:"min=1"`
	Limit   int  `form:"limit,default=50" validate:"min=1,max=200"`
}

type DevolucionListResponse struct {
	Data  []DevolucionResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
