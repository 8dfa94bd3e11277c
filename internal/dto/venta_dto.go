package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha string `form:"fecha"` // YYYY-MM-DD; empty = all
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID          uint            `json:"producto_id"          validate:"required"`
	Cantidad            int             `json:"cantidad"             validate:"required,min=1"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario"      validate:"min=0"`
	DescuentoIndividual decimal.Decimal `json:"descuento_individual"`
}

type CrearVentaRequest struct {
	ClienteID *uint              `json:"cliente_id"`
	Items     []ItemVentaRequest `json:"detalles"   validate:"required,min=1,dive"`
	Descuento decimal.Decimal    `json:"descuento"` // global, 0-100
	FormaPago string             `json:"forma_pago" validate:"omitempty,max=20"`
	Pagado    bool               `json:"pagado"`
}

// ItemSubtotalRequest is a line as supplied on header updates; only Subtotal
// and DescuentoIndividual feed the recomputed totals.
type ItemSubtotalRequest struct {
	ProductoID          uint            `json:"producto_id"`
	Cantidad            int             `json:"cantidad"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario"`
	DescuentoIndividual decimal.Decimal `json:"descuento_individual"`
	Subtotal            decimal.Decimal `json:"subtotal"             validate:"min=0"`
}

type ActualizarVentaRequest struct {
	ClienteID *uint                 `json:"cliente_id"`
	Items     []ItemSubtotalRequest `json:"detalles"   validate:"dive"`
	Descuento decimal.Decimal       `json:"descuento"`
	FormaPago string                `json:"forma_pago" validate:"omitempty,max=20"`
	Pagado    bool                  `json:"pagado"`
}

type MarcarPagadoRequest struct {
	Pagado *bool `json:"pagado" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ID                  uint            `json:"id"`
	ProductoID          uint            `json:"producto_id"`
	Cantidad            int             `json:"cantidad"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario"`
	DescuentoIndividual decimal.Decimal `json:"descuento_individual"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	CostoUnitario       decimal.Decimal `json:"costo_unitario"`
}

type VentaResponse struct {
	ID                uint                `json:"id"`
	Fecha             string              `json:"fecha"`
	TotalSinDescuento decimal.Decimal     `json:"total_sin_descuento"`
	Descuento         decimal.Decimal     `json:"descuento"`
	Total             decimal.Decimal     `json:"total"`
	ClienteID         *uint               `json:"cliente_id"`
	UsuarioID         uint                `json:"usuario_id"`
	FormaPago         string              `json:"forma_pago"`
	Pagado            bool                `json:"pagado"`
	Items             []ItemVentaResponse `json:"detalles"`
}
